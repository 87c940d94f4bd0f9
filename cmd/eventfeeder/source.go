package main

import (
	"encoding/json"
	"os"
)

// getEnv returns the environment variable under key, or fallback when it
// is unset.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// streamEnvelopes reads a JSON array of notification envelopes one element
// at a time:
//
//	[{"eventId":"E1", ...}, {"eventId":"E2", ...}, ... ]
//
// Each element is sent as-is, so malformed envelopes inside a well formed
// array reach the gateway untouched.
func streamEnvelopes(filename string) (<-chan json.RawMessage, <-chan error) {
	out := make(chan json.RawMessage)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		file, err := os.Open(filename)
		if err != nil {
			errs <- err
			return
		}
		defer file.Close()

		dec := json.NewDecoder(file)
		if _, err := dec.Token(); err != nil {
			errs <- err
			return
		}

		for dec.More() {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				errs <- err
				return
			}
			out <- raw
		}

		if _, err := dec.Token(); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

// partitionKey returns the id of the entity the envelope is about, so every
// notification for one order lands on the same partition. Unparseable
// payloads get no key.
func partitionKey(payload []byte) []byte {
	var env struct {
		Event struct {
			ID string `json:"id"`
		} `json:"event"`
	}
	if err := json.Unmarshal(payload, &env); err != nil || env.Event.ID == "" {
		return nil
	}
	return []byte(env.Event.ID)
}
