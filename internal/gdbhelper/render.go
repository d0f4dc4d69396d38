// Record output formats: text, json and yaml, with optional gjson path selection.
package gdbhelper

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/glthr/go-gdbmi/internal/gdbmi"
)

type renderer struct {
	format string
	path   string
	w      io.Writer
	yaml   *yaml.Encoder
}

func newRenderer(format, path string, w io.Writer) (*renderer, error) {
	r := &renderer{format: strings.ToLower(format), path: path, w: w}
	switch r.format {
	case "text", "json":
	case "yaml":
		r.yaml = yaml.NewEncoder(w)
		r.yaml.SetIndent(2)
	default:
		return nil, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
	return r, nil
}

func (r *renderer) render(rec gdbmi.Record) error {
	if r.path == "" && r.format == "text" {
		_, err := fmt.Fprintln(r.w, textLine(rec))
		return err
	}
	js, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	res := gjson.ParseBytes(js)
	if r.path != "" {
		res = res.Get(r.path)
		if !res.Exists() {
			return nil
		}
	}
	switch r.format {
	case "yaml":
		if err := r.yaml.Encode(yamlNode(res)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return nil
	case "json":
		_, err = fmt.Fprintln(r.w, res.Raw)
	default:
		_, err = fmt.Fprintln(r.w, res.String())
	}
	return err
}

func (r *renderer) close() error {
	if r.yaml != nil {
		return r.yaml.Close()
	}
	return nil
}

// textLine prints kind, token, message and the payload as JSON; absent
// fields are "-".
func textLine(rec gdbmi.Record) string {
	token := "-"
	if rec.Token != nil {
		token = strconv.FormatUint(*rec.Token, 10)
	}
	msg := rec.Message
	if msg == "" {
		msg = "-"
	}
	line := fmt.Sprintf("%s %s %s", rec.Kind, token, msg)
	if rec.Payload != nil {
		b, err := json.Marshal(rec.Payload)
		if err != nil {
			return line + " <" + err.Error() + ">"
		}
		line += " " + string(b)
	}
	return line
}

// yamlNode converts a JSON value into a yaml node, keeping object key order.
func yamlNode(res gjson.Result) *yaml.Node {
	switch {
	case res.IsObject():
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		res.ForEach(func(k, v gjson.Result) bool {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k.String()},
				yamlNode(v))
			return true
		})
		return n
	case res.IsArray():
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		res.ForEach(func(_, v gjson.Result) bool {
			n.Content = append(n.Content, yamlNode(v))
			return true
		})
		return n
	}
	switch res.Type {
	case gjson.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: res.String()}
	case gjson.Number:
		tag := "!!int"
		if strings.ContainsAny(res.Raw, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: res.Raw}
	case gjson.True, gjson.False:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: res.Raw}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
