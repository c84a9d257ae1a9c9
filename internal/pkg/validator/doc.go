// Package validator wraps go-playground/validator behind a small interface
// with English translations and the custom rules this service needs.
package validator
