package common

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"
)

func IsValidURL(rawurl string) bool {
	parsed, err := url.ParseRequestURI(rawurl)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && len(parsed.Host) > 0
}

func IsValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// ValidateHost is a form validator for the platform address prompt.
func ValidateHost(value string) error {
	if !IsValidURL(strings.TrimSpace(value)) {
		return errors.New("enter an http or https address, e.g. http://localhost:8000")
	}
	return nil
}

// ValidateEmail is a form validator for the email prompt.
func ValidateEmail(value string) error {
	if !IsValidEmail(strings.TrimSpace(value)) {
		return errors.New("enter a valid email address")
	}
	return nil
}

func ValidateRequired(field string) func(string) error {
	return func(value string) error {
		if len(strings.TrimSpace(value)) == 0 {
			return errors.New(field + " is required")
		}
		return nil
	}
}
