/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"
)

var (
	errNotHost       = errors.New("only the host can change this board")
	errGameOver      = errors.New("all rounds have been played; reset to start a new game")
	errNoSubmissions = errors.New("enter at least one time before finishing the round")
	errBadRequest    = errors.New("malformed request")
)

// errorType maps a command error to the message type sent back to the client.
func errorType(err error) string {
	switch {
	case errors.Is(err, errNotHost):
		return "not_host"
	case errors.Is(err, errGameOver):
		return "game_over"
	case errors.Is(err, errNoSubmissions):
		return "no_submissions"
	default:
		return "bad_request"
	}
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func drainErrors(cfg *Config, errs <-chan error) {
	for err := range errs {
		logf(cfg, "ERROR: %v", err)
	}
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", html.EscapeString(body)))

	return htmlBody.String()
}
