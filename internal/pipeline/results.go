package pipeline

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ToPlainText renders "Found: N" followed by one decoded value per line.
func ToPlainText(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var sb strings.Builder
	sb.WriteString("Found: ")
	sb.WriteString(strconv.Itoa(res.Found()))
	sb.WriteByte('\n')
	for _, v := range res.ISBNs {
		sb.WriteString(v)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

type jsonSummary struct {
	File  string   `json:"file"`
	Found int      `json:"found"`
	ISBNs []string `json:"isbns"`
}

// ToJSON serializes a compact summary of res as pretty JSON.
func ToJSON(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	isbns := res.ISBNs
	if isbns == nil {
		isbns = []string{}
	}
	b, err := json.MarshalIndent(jsonSummary{File: res.File, Found: res.Found(), ISBNs: isbns}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// Write renders res in the named format ("text" or "json") to w.
func Write(w io.Writer, res *Result, format string) error {
	var (
		out string
		err error
	)
	switch format {
	case "json":
		out, err = ToJSON(res)
	case "", "text":
		out, err = ToPlainText(res)
	default:
		return errors.New("unknown output format: " + format)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
