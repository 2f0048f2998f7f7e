package odoo

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
)

// xmlrpcCall performs a single XML-RPC method call against the given endpoint
// and decodes the response value into an int (the only result type the Odoo
// operations we use return: uid from authenticate, record id from create).
func xmlrpcCall(ctx context.Context, client *http.Client, endpoint, method string, params []any) (int, error) {
	var body bytes.Buffer
	body.WriteString(xml.Header)
	body.WriteString("<methodCall><methodName>")
	if err := xml.EscapeText(&body, []byte(method)); err != nil {
		return 0, fmt.Errorf("encode method: %w", err)
	}
	body.WriteString("</methodName><params>")
	for _, p := range params {
		body.WriteString("<param>")
		if err := writeValue(&body, p); err != nil {
			return 0, fmt.Errorf("encode params: %w", err)
		}
		body.WriteString("</param>")
	}
	body.WriteString("</params></methodCall>")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	return parseResponse(raw, method)
}

// writeValue encodes a Go value as an XML-RPC <value>. Supported types cover
// what the Odoo task payload needs: strings, ints, bools, lists, and structs.
func writeValue(w *bytes.Buffer, v any) error {
	w.WriteString("<value>")
	defer w.WriteString("</value>")

	switch val := v.(type) {
	case string:
		w.WriteString("<string>")
		if err := xml.EscapeText(w, []byte(val)); err != nil {
			return err
		}
		w.WriteString("</string>")
	case int:
		fmt.Fprintf(w, "<int>%d</int>", val)
	case bool:
		b := 0
		if val {
			b = 1
		}
		fmt.Fprintf(w, "<boolean>%d</boolean>", b)
	case []any:
		w.WriteString("<array><data>")
		for _, item := range val {
			if err := writeValue(w, item); err != nil {
				return err
			}
		}
		w.WriteString("</data></array>")
	case map[string]any:
		w.WriteString("<struct>")
		// Deterministic member order keeps payloads reproducible in tests.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.WriteString("<member><name>")
			if err := xml.EscapeText(w, []byte(k)); err != nil {
				return err
			}
			w.WriteString("</name>")
			if err := writeValue(w, val[k]); err != nil {
				return err
			}
			w.WriteString("</member>")
		}
		w.WriteString("</struct>")
	default:
		return fmt.Errorf("unsupported XML-RPC type %T", v)
	}
	return nil
}

type methodResponse struct {
	Params []struct {
		Value rpcValue `xml:"value"`
	} `xml:"params>param"`
	Fault *struct {
		Value rpcValue `xml:"value"`
	} `xml:"fault"`
}

type rpcValue struct {
	Int     string `xml:"int"`
	I4      string `xml:"i4"`
	String  string `xml:"string"`
	Text    string `xml:",chardata"`
	Members []struct {
		Name  string   `xml:"name"`
		Value rpcValue `xml:"value"`
	} `xml:"struct>member"`
}

func parseResponse(raw []byte, method string) (int, error) {
	var mr methodResponse
	if err := xml.Unmarshal(raw, &mr); err != nil {
		return 0, fmt.Errorf("parse %s response: %w", method, err)
	}

	if mr.Fault != nil {
		for _, m := range mr.Fault.Value.Members {
			if m.Name == "faultString" {
				return 0, fmt.Errorf("%s fault: %s", method, m.Value.String)
			}
		}
		return 0, fmt.Errorf("%s fault", method)
	}

	if len(mr.Params) == 0 {
		return 0, fmt.Errorf("%s: empty response", method)
	}

	v := mr.Params[0].Value
	text := v.Int
	if text == "" {
		text = v.I4
	}
	if text == "" {
		return 0, fmt.Errorf("%s: response is not an integer", method)
	}

	var n int
	if _, err := fmt.Sscanf(text, "%d", &n); err != nil {
		return 0, fmt.Errorf("%s: parse integer %q: %w", method, text, err)
	}
	return n, nil
}
