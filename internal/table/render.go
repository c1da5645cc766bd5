package table

import (
	"strings"
	"time"

	"royalties/internal/core"
)

type CellKind string

const (
	CellText   CellKind = "text"
	CellBadge  CellKind = "badge"
	CellDate   CellKind = "date"
	CellMedia  CellKind = "media"
	CellCustom CellKind = "custom"
)

// Tone is the colour category of a status badge.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// Cell is the display form of one value.
type Cell struct {
	Kind  CellKind
	Text  string
	Badge *Badge
	Media *Media
}

type Badge struct {
	Label string
	Tone  Tone
	Icon  string
}

// Media holds the play and download controls for a file URL column.
type Media struct {
	URL          string
	Type         core.MediaType
	DownloadName string
}

const placeholder = "-"

// DateLayout is the display layout for date columns.
const DateLayout = "2 Jan 2006"

var (
	statusKeys = map[string]bool{"status": true}
	dateKeys   = map[string]bool{
		"uploadedDate": true,
		"createdAt":    true,
		"createdDate":  true,
		"dateRecorded": true,
	}
	fileKeys = map[string]bool{"fileUrl": true}
)

// RenderCell resolves and renders a column value for rec. A column Render
// function takes precedence over the built-in policy.
func RenderCell[T Record](col Column[T], rec T) Cell {
	value := col.resolve(rec)
	if col.Render != nil {
		c := col.Render(value, rec)
		if c.Kind == "" {
			c.Kind = CellCustom
		}
		return c
	}

	switch {
	case statusKeys[col.Key]:
		if c, ok := statusCell(value); ok {
			return c
		}
	case dateKeys[col.Key]:
		return dateCell(value)
	case fileKeys[col.Key]:
		if url := Stringify(value); url != "" {
			title := Stringify(rec.Field("title"))
			fileType := Stringify(rec.Field("fileType"))
			return Cell{Kind: CellMedia, Media: &Media{
				URL:          url,
				Type:         core.ResolveMedia(fileType, url, Stringify(rec.Field("uploadType"))),
				DownloadName: core.DownloadName(title, fileType),
			}}
		}
	}

	text := Stringify(value)
	if strings.TrimSpace(text) == "" {
		text = placeholder
	}
	return Cell{Kind: CellText, Text: text}
}

// StatusBadge maps an upper-cased status name to its badge. Unknown and empty
// names get the pending styling.
func StatusBadge(name string) Badge {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "APPROVED":
		return Badge{Label: name, Tone: ToneSuccess, Icon: "check"}
	case "REJECTED":
		return Badge{Label: name, Tone: ToneError, Icon: "x"}
	case "":
		return Badge{Label: "PENDING", Tone: ToneWarning, Icon: "clock"}
	}
	return Badge{Label: name, Tone: ToneWarning, Icon: "clock"}
}

func statusCell(v any) (Cell, bool) {
	switch x := v.(type) {
	case nil:
		b := StatusBadge("")
		return Cell{Kind: CellBadge, Text: b.Label, Badge: &b}, true
	case StatusLabeler:
		b := StatusBadge(Stringify(x))
		return Cell{Kind: CellBadge, Text: b.Label, Badge: &b}, true
	}
	return Cell{}, false
}

func dateCell(v any) Cell {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x != nil {
			t = *x
		}
	case string:
		if p, err := time.Parse(time.RFC3339, x); err == nil {
			t = p
		} else if p, err := time.Parse(time.DateOnly, x); err == nil {
			t = p
		}
	}
	if t.IsZero() {
		return Cell{Kind: CellDate, Text: placeholder}
	}
	return Cell{Kind: CellDate, Text: t.Format(DateLayout)}
}
