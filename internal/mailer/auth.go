package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// ErrInsecureConnection is returned when the SMTP session is not encrypted at
// the point credentials would be sent.
var ErrInsecureConnection = errors.New("smtp server did not upgrade the connection to TLS; refusing to send credentials")

// tlsOnlyAuth authenticates only over an encrypted session.
//
// gomail upgrades with STARTTLS when the server offers it and otherwise logs
// in over plaintext. With this Auth installed on the dialer an unencrypted
// session fails in Start, before any AUTH command is written.
type tlsOnlyAuth struct {
	username string
	password string
	host     string

	mech smtp.Auth
}

func newTLSOnlyAuth(username, password, host string) *tlsOnlyAuth {
	return &tlsOnlyAuth{username: username, password: password, host: host}
}

// Start picks PLAIN, LOGIN or CRAM-MD5 from the mechanisms the server
// advertises, preferring PLAIN.
func (a *tlsOnlyAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, ErrInsecureConnection
	}

	switch {
	case hasMechanism(server.Auth, "PLAIN") || len(server.Auth) == 0:
		a.mech = smtp.PlainAuth("", a.username, a.password, a.host)
	case hasMechanism(server.Auth, "LOGIN"):
		a.mech = &loginAuth{username: a.username, password: a.password}
	case hasMechanism(server.Auth, "CRAM-MD5"):
		a.mech = smtp.CRAMMD5Auth(a.username, a.password)
	default:
		return "", nil, fmt.Errorf("no supported smtp auth mechanism in %v", server.Auth)
	}
	return a.mech.Start(server)
}

func (a *tlsOnlyAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if a.mech == nil {
		return nil, errors.New("smtp auth not started")
	}
	return a.mech.Next(fromServer, more)
}

func hasMechanism(advertised []string, mech string) bool {
	for _, m := range advertised {
		if strings.EqualFold(m, mech) {
			return true
		}
	}
	return false
}

// loginAuth implements the LOGIN mechanism, which net/smtp lacks.
type loginAuth struct {
	username string
	password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch prompt := strings.ToLower(strings.TrimSpace(string(fromServer))); prompt {
	case "username:":
		return []byte(a.username), nil
	case "password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected smtp LOGIN challenge %q", fromServer)
	}
}
