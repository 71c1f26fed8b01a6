package lgr

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"

	"github.com/fatih/color"
)

// PrettyHandler prints one coloured line per record with the attributes
// as indented JSON. Meant for local development.
type PrettyHandler struct {
	slog.Handler
	l      *log.Logger
	fields map[string]interface{}
	groups []string
}

func NewPrettyHandler(out io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	return &PrettyHandler{
		Handler: slog.NewJSONHandler(out, opts),
		l:       log.New(out, "", 0),
	}
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	fields := copyFields(h.fields)
	target := openGroups(fields, h.groups)
	r.Attrs(func(a slog.Attr) bool {
		target[a.Key] = attrValue(a)
		return true
	})
	pruneGroups(fields, h.groups)

	timeStr := r.Time.Format("[15:04:05.000]")
	msg := color.CyanString(r.Message)

	if len(fields) == 0 {
		h.l.Println(timeStr, level, msg)
		return nil
	}

	b, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return err
	}

	h.l.Println(timeStr, level, msg, color.WhiteString(string(b)))
	return nil
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	fields := copyFields(h.fields)
	target := openGroups(fields, h.groups)
	for _, a := range attrs {
		target[a.Key] = attrValue(a)
	}
	return &PrettyHandler{Handler: h.Handler.WithAttrs(attrs), l: h.l, fields: fields, groups: h.groups}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &PrettyHandler{Handler: h.Handler.WithGroup(name), l: h.l, fields: copyFields(h.fields), groups: groups}
}

// openGroups walks (and creates) the nested maps for groups and returns the innermost one.
func openGroups(fields map[string]interface{}, groups []string) map[string]interface{} {
	target := fields
	for _, g := range groups {
		next, ok := target[g].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			target[g] = next
		}
		target = next
	}
	return target
}

func copyFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		if m, ok := v.(map[string]interface{}); ok {
			v = copyFields(m)
		}
		dst[k] = v
	}
	return dst
}

// pruneGroups drops open groups that ended up without attributes, like slog's own handlers.
func pruneGroups(fields map[string]interface{}, groups []string) {
	if len(groups) == 0 {
		return
	}

	next, ok := fields[groups[0]].(map[string]interface{})
	if !ok {
		return
	}
	pruneGroups(next, groups[1:])
	if len(next) == 0 {
		delete(fields, groups[0])
	}
}

func attrValue(a slog.Attr) interface{} {
	a = replaceAttr(nil, a)
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return v.Any()
	}

	group := map[string]interface{}{}
	for _, ga := range v.Group() {
		group[ga.Key] = attrValue(ga)
	}
	return group
}
