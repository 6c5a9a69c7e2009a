package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmailAuthority(t *testing.T) {
	t.Parallel()

	var client Email
	require.NoError(t, client.Init())

	tests := []struct {
		message      string
		uri          string
		hasAuthority bool
	}{
		{
			message:      "have authority over a mailto link",
			uri:          "mailto:milo@gonitro.com",
			hasAuthority: true,
		},
		{
			message:      "have authority over a mailto link with a query",
			uri:          "mailto:milo@gonitro.com?subject=something",
			hasAuthority: true,
		},
		{
			message:      "have no authority over a web link",
			uri:          "http://something.com",
			hasAuthority: false,
		},
		{
			message:      "have no authority over an address without scheme",
			uri:          "milo@gonitro.com",
			hasAuthority: false,
		},
		{
			message:      "have no authority over a mailto link without domain",
			uri:          "mailto:milo",
			hasAuthority: false,
		},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run("Should "+tt.message, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.hasAuthority, client.Authority(tt.uri))
		})
	}
}

func TestEmailValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message   string
		checker   *emailCheckerMock
		uri       string
		domain    string
		isValid   bool
		shouldErr bool
	}{
		{
			message: "attest the email as valid",
			checker: &emailCheckerMock{response: true},
			uri:     "mailto:milo@gonitro.com",
			domain:  "gonitro.com",
			isValid: true,
		},
		{
			message: "attest the email with a query as valid",
			checker: &emailCheckerMock{response: true},
			uri:     "mailto:milo@mail.gonitro.com?subject=something",
			domain:  "mail.gonitro.com",
			isValid: true,
		},
		{
			message: "attest a web link as invalid",
			checker: &emailCheckerMock{response: true},
			uri:     "http://gonitro.com",
			isValid: false,
		},
		{
			message: "attest the email as invalid when the domain has no MX entry",
			checker: &emailCheckerMock{response: false},
			uri:     "mailto:unknown@email.com",
			domain:  "email.com",
			isValid: false,
		},
		{
			message:   "have an error when the lookup fails",
			checker:   &emailCheckerMock{shouldErr: true},
			uri:       "mailto:valid@email.com",
			domain:    "email.com",
			shouldErr: true,
		},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run("Should "+tt.message, func(t *testing.T) {
			t.Parallel()
			client := Email{checker: tt.checker}
			require.NoError(t, client.Init())

			isValid, err := client.Valid(context.Background(), "", tt.uri)
			require.Equal(t, tt.shouldErr, err != nil)
			require.Equal(t, tt.isValid, isValid)
			require.Equal(t, tt.domain, tt.checker.domain)
		})
	}
}

type emailCheckerMock struct {
	response  bool
	shouldErr bool
	domain    string
}

func (e *emailCheckerMock) exists(_ context.Context, domain string) (bool, error) {
	e.domain = domain
	if e.shouldErr {
		return false, errors.New("error during the email check")
	}
	return e.response, nil
}
