package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
)

var emailRegex = regexp.MustCompile("^mailto:[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@([a-zA-Z0-9-]+(?:\\.[a-zA-Z0-9-]+)*)")

type emailChecker interface {
	exists(ctx context.Context, domain string) (bool, error)
}

// Email checks mailto links by looking up the MX records of the address domain.
type Email struct {
	checker emailChecker
}

// Init internal state.
func (e *Email) Init() error {
	if e.checker == nil {
		e.checker = emailResolver{resolver: net.DefaultResolver}
	}
	return nil
}

// Authority checks if the email provider is responsible to process the entry.
func (Email) Authority(uri string) bool {
	return emailRegex.MatchString(uri)
}

// Valid check if the address domain accepts email.
func (e Email) Valid(ctx context.Context, _, uri string) (bool, error) {
	fragments := emailRegex.FindStringSubmatch(uri)
	if fragments == nil {
		return false, nil
	}

	exists, err := e.checker.exists(ctx, fragments[1])
	if err != nil {
		return false, fmt.Errorf("fail to check the MX DNS entries: %w", err)
	}
	return exists, nil
}

type emailResolver struct {
	resolver *net.Resolver
}

func (r emailResolver) exists(ctx context.Context, domain string) (bool, error) {
	mxs, err := r.resolver.LookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, err
	}
	return len(mxs) > 0, nil
}
