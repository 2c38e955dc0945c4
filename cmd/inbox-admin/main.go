// inbox-admin is a small terminal client for the moderation endpoints.
// It lists the open inbox or submits one admin command per run.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "inbox API base URL")
		userID  = flag.String("user", "1", "admin user id")
		list    = flag.Bool("list", false, "list pending inbox entries")
		command = flag.String("command", "", "admin command to apply (REJECT, IMPORT, ...)")
		payload = flag.String("payload", "{}", "command payload as JSON")
	)
	flag.Parse()

	switch {
	case *list:
		if err := run(http.MethodGet, *baseURL+"/adminInbox", *userID, nil); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case *command != "":
		var body map[string]any
		if err := json.Unmarshal([]byte(*payload), &body); err != nil {
			fmt.Fprintln(os.Stderr, "invalid payload:", err)
			os.Exit(1)
		}
		body["command"] = *command
		data, _ := json.Marshal(body)
		if err := run(http.MethodPost, *baseURL+"/adminInbox", *userID, bytes.NewReader(data)); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func run(method, url, userID string, body io.Reader) error {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-User-Id", userID)
	req.Header.Set("X-Admin", "true")
	req.Header.Set("X-Email-Verified", "true")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(resp.Status)
	fmt.Println(string(out))
	return nil
}
