package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nitro/markdown-safe-html/internal/service"
)

type providerMock struct {
	mock.Mock
}

func (p *providerMock) Authority(uri string) bool {
	return p.Called(uri).Bool(0)
}

func (p *providerMock) Valid(ctx context.Context, filePath, uri string) (bool, error) {
	args := p.Called(ctx, filePath, uri)
	return args.Bool(0), args.Error(1)
}

type enhancedError struct{}

func (enhancedError) Error() string { return "status 404" }
func (enhancedError) PrettyPrint()  {}

func TestWorkerProcess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	web := new(providerMock)
	web.On("Authority", "https://go.dev").Return(true)
	web.On("Authority", "https://go.dev/missing").Return(true)
	web.On("Authority", "mailto:a@b.c").Return(false)
	web.On("Authority", "ftp://x").Return(false)
	web.On("Valid", ctx, "a.md", "https://go.dev").Return(true, nil)
	web.On("Valid", ctx, "a.md", "https://go.dev/missing").Return(false, enhancedError{})

	email := new(providerMock)
	email.On("Authority", "mailto:a@b.c").Return(true)
	email.On("Authority", "ftp://x").Return(false)
	email.On("Valid", ctx, "b.md", "mailto:a@b.c").Return(false, nil)

	w := Worker{Providers: []Provider{web, email}}
	entries, err := w.Process(ctx, []service.Entry{
		{Path: "a.md", Link: "https://go.dev"},
		{Path: "a.md", Link: "https://go.dev/missing"},
		{Path: "b.md", Link: "mailto:a@b.c"},
		{Path: "b.md", Link: "ftp://x"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.True(t, entries[0].Valid)
	require.Nil(t, entries[0].FailReason)
	require.False(t, entries[1].Valid)
	require.NotNil(t, entries[1].FailReason)
	require.Equal(t, "mailto:a@b.c", entries[2].Link)
	require.False(t, entries[2].Valid)

	web.AssertExpectations(t)
	email.AssertExpectations(t)
	email.AssertNotCalled(t, "Authority", "https://go.dev")
}

func TestWorkerProcessErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := Worker{}.Process(ctx, nil)
	require.EqualError(t, err, "missing 'providers'")

	p := new(providerMock)
	p.On("Authority", mock.Anything).Return(true)
	p.On("Valid", ctx, "a.md", "x").Return(false, errors.New("boom"))
	p.On("Valid", ctx, "a.md", "y").Return(false, errors.New("bang"))

	w := Worker{Providers: []Provider{p}}
	_, err = w.Process(ctx, []service.Entry{{Path: "a.md", Link: "x"}})
	require.EqualError(t, err, "link 'x' at 'a.md': boom")

	_, err = w.Process(ctx, []service.Entry{{Path: "a.md", Link: "x"}, {Path: "a.md", Link: "y"}})
	require.EqualError(t, err, "multiple errors detected ('link 'x' at 'a.md': boom', 'link 'y' at 'a.md': bang')")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = w.Process(canceled, []service.Entry{{Path: "a.md", Link: "x"}})
	require.Equal(t, context.Canceled, err)
}
