package transcode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind distinguishes the two command shapes.
type Kind int

const (
	KindRemux Kind = iota + 1
	KindFrame
)

// SubtitleSource records where a remux takes its subtitle stream from.
type SubtitleSource int

const (
	SubtitleNone SubtitleSource = iota
	SubtitleEmbedded
	SubtitleSidecar
)

func (s SubtitleSource) String() string {
	switch s {
	case SubtitleEmbedded:
		return "embedded"
	case SubtitleSidecar:
		return "sidecar"
	default:
		return "none"
	}
}

// OutputExtension is the container produced by remux commands. Matroska is
// required for image attachments.
const OutputExtension = ".mkv"

var preamble = []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}

// Command is an immutable ffmpeg invocation.
type Command struct {
	kind      Kind
	source    string
	output    string
	subtitle  SubtitleSource
	sidecar   string
	thumbnail string
	args      []string
}

// Kind returns the command shape.
func (c Command) Kind() Kind { return c.kind }

// Source returns the primary input.
func (c Command) Source() string { return c.source }

// Output returns the file the command writes.
func (c Command) Output() string { return c.output }

// Subtitle returns the subtitle decision baked into the command.
func (c Command) Subtitle() SubtitleSource { return c.subtitle }

// Sidecar returns the sidecar subtitle input, if any.
func (c Command) Sidecar() string { return c.sidecar }

// Thumbnail returns the attached cover image, if any.
func (c Command) Thumbnail() string { return c.thumbnail }

// Args returns a copy of the ffmpeg arguments, without the binary name.
func (c Command) Args() []string {
	return append([]string(nil), c.args...)
}

// String renders the arguments for logs.
func (c Command) String() string {
	quoted := make([]string, len(c.args))
	for i, arg := range c.args {
		if strings.ContainsAny(arg, " \t'\"") {
			quoted[i] = fmt.Sprintf("%q", arg)
		} else {
			quoted[i] = arg
		}
	}
	return strings.Join(quoted, " ")
}

// Builder accumulates remux decisions for one source file.
type Builder struct {
	source    string
	output    string
	subtitle  SubtitleSource
	sidecar   string
	title     string
	comment   string
	language  string
	thumbnail string
}

// NewRemux starts a stream-copy remux of source.
func NewRemux(source string) *Builder {
	return &Builder{source: strings.TrimSpace(source), language: "en"}
}

// EmbeddedSubtitle selects the first subtitle stream of the source.
func (b *Builder) EmbeddedSubtitle() *Builder {
	b.subtitle = SubtitleEmbedded
	b.sidecar = ""
	return b
}

// SidecarSubtitle adds path as a second input and selects its first stream.
func (b *Builder) SidecarSubtitle(path string) *Builder {
	b.subtitle = SubtitleSidecar
	b.sidecar = strings.TrimSpace(path)
	return b
}

// Title sets the container title.
func (b *Builder) Title(title string) *Builder {
	b.title = strings.TrimSpace(title)
	return b
}

// Comment sets the container comment; empty omits it.
func (b *Builder) Comment(comment string) *Builder {
	b.comment = strings.TrimSpace(comment)
	return b
}

// Language sets the language tag written on the audio and subtitle streams.
func (b *Builder) Language(language string) *Builder {
	if language = strings.TrimSpace(language); language != "" {
		b.language = language
	}
	return b
}

// Thumbnail attaches path as the cover image; empty omits it.
func (b *Builder) Thumbnail(path string) *Builder {
	b.thumbnail = strings.TrimSpace(path)
	return b
}

// Output sets the destination path. The Matroska extension is appended
// when missing.
func (b *Builder) Output(path string) *Builder {
	path = strings.TrimSpace(path)
	if path != "" && !strings.EqualFold(filepath.Ext(path), OutputExtension) {
		path += OutputExtension
	}
	b.output = path
	return b
}

// Build validates the accumulated decisions and renders the command.
func (b *Builder) Build() (Command, error) {
	switch {
	case b.source == "":
		return Command{}, errors.New("remux: source is required")
	case b.output == "":
		return Command{}, errors.New("remux: output is required")
	case b.subtitle == SubtitleSidecar && b.sidecar == "":
		return Command{}, errors.New("remux: sidecar subtitle path is required")
	case b.thumbnail != "" && attachmentMimeType(b.thumbnail) == "":
		return Command{}, fmt.Errorf("remux: unsupported thumbnail type %q", filepath.Ext(b.thumbnail))
	}

	args := make([]string, 0, 48)
	args = append(args, preamble...)
	args = append(args, "-i", b.source)
	if b.subtitle == SubtitleSidecar {
		args = append(args, "-i", b.sidecar)
	}

	args = append(args, "-map", "0:v:0", "-map", "0:a:0")
	switch b.subtitle {
	case SubtitleEmbedded:
		args = append(args, "-map", "0:s:0")
	case SubtitleSidecar:
		args = append(args, "-map", "1:s:0")
	}

	args = append(args, "-c:v", "copy", "-c:a", "copy")
	if b.subtitle != SubtitleNone {
		args = append(args, "-c:s", "srt")
	}

	args = append(args, "-map_metadata", "-1", "-map_chapters", "-1")
	if b.title != "" {
		args = append(args, "-metadata", "title="+b.title)
	}
	if b.comment != "" {
		args = append(args, "-metadata", "comment="+b.comment)
	}
	args = append(args, "-metadata:s:a:0", "language="+b.language)
	if b.subtitle != SubtitleNone {
		args = append(args, "-metadata:s:s:0", "language="+b.language)
	}

	if b.thumbnail != "" {
		args = append(args,
			"-attach", b.thumbnail,
			"-metadata:s:t:0", "mimetype="+attachmentMimeType(b.thumbnail),
			"-metadata:s:t:0", "filename=cover"+strings.ToLower(filepath.Ext(b.thumbnail)),
		)
	}
	args = append(args, b.output)

	return Command{
		kind:      KindRemux,
		source:    b.source,
		output:    b.output,
		subtitle:  b.subtitle,
		sidecar:   b.sidecar,
		thumbnail: b.thumbnail,
		args:      args,
	}, nil
}

// FrameCommand extracts one still frame of source at timestamp into output.
func FrameCommand(source, timestamp, output string) (Command, error) {
	source, timestamp, output = strings.TrimSpace(source), strings.TrimSpace(timestamp), strings.TrimSpace(output)
	switch {
	case source == "":
		return Command{}, errors.New("frame: source is required")
	case timestamp == "":
		return Command{}, errors.New("frame: timestamp is required")
	case output == "":
		return Command{}, errors.New("frame: output is required")
	}
	args := make([]string, 0, 16)
	args = append(args, preamble...)
	args = append(args, "-ss", timestamp, "-i", source, "-frames:v", "1", "-q:v", "2", output)
	return Command{kind: KindFrame, source: source, output: output, args: args}, nil
}

func attachmentMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return ""
	}
}
