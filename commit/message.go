// Package commit renders sync commit messages and reads the installed git
// version.
package commit

import (
	"bytes"
	"io"
	"os"
	"strings"
	"text/template"
	"time"
)

const DefaultMessageTemplate = `{{- .Prefix }} {{ timestamp .Time -}}`

type MessageData struct {
	Prefix string
	Time   time.Time
}

var funcMap = template.FuncMap{
	"join": strings.Join,
	"rfc3339": func(t time.Time) string {
		return t.Format(time.RFC3339)
	},
	"hostname": func() string {
		name, err := os.Hostname()
		if err != nil {
			return "localhost"
		}
		return name
	},
}

type Message struct {
	t *template.Template
}

// NewMessage parses a commit message template whose timestamp func formats
// with layout. An empty template selects DefaultMessageTemplate, an empty
// layout time.UnixDate.
func NewMessage(s, layout string) (*Message, error) {
	name := "message"
	if s != "" {
		name = "custom_message"
	}
	tmpl := s
	if tmpl == "" {
		tmpl = DefaultMessageTemplate
	}
	if layout == "" {
		layout = time.UnixDate
	}

	funcs := template.FuncMap{
		"timestamp": func(t time.Time) string {
			return t.Format(layout)
		},
	}
	t, err := template.New(name).Funcs(funcMap).Funcs(funcs).Parse(tmpl)
	if err != nil {
		return nil, err
	}
	return &Message{t: t}, nil
}

func (m *Message) Execute(w io.Writer, d MessageData) error {
	return m.t.Execute(w, d)
}

func (m *Message) ExecuteString(d MessageData) (string, error) {
	b := &bytes.Buffer{}
	if err := m.Execute(b, d); err != nil {
		return "", err
	}

	return strings.TrimSpace(b.String()), nil
}
