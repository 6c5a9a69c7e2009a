package provider

import (
	"net/http"

	"github.com/kr/pretty"
)

// webError keeps the exchange that made a link invalid so it can be shown to the user.
type webError struct {
	base           error
	requestHeader  http.Header
	responseHeader http.Header
	status         int
	body           string
}

func (err webError) Error() string {
	return err.base.Error()
}

func (err webError) Unwrap() error {
	return err.base
}

func (err webError) PrettyPrint() {
	pretty.Println(struct {
		Reason         string
		Status         int
		RequestHeader  http.Header
		ResponseHeader http.Header
		Body           string
	}{err.base.Error(), err.status, err.requestHeader, err.responseHeader, err.body})
}
