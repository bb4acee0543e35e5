package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
)

// Most commands need this, so results always go to stdout as JSON.
func PrintJson(obj interface{}) {
	rawjson, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		log.Fatalln("Couldn't serialize json: ", err)
	}
	fmt.Println(string(rawjson))
}

// Quick way to fail on error for setup steps that have no sensible recovery.
func fatalIfErr(subject string, doing string, err error) {
	if err != nil {
		log.Fatalf("%s - Couldn't %s: %s", subject, doing, err)
	}
}

// parseUint accepts decimal, 0x hex, 0o octal and 0b binary, with
// underscores between digits.
func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

func hex64(v uint64) string {
	return fmt.Sprintf("0x%016X", v)
}
