package schema

// ContentType discriminates the kind of payload a ContentPart carries.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentAudio ContentType = "audio"
	ContentVideo ContentType = "video"
	ContentFile  ContentType = "file"
)

// ContentPart is one segment of a message's content. Messages carry a slice
// of ContentPart so a single turn can mix text with media.
type ContentPart interface {
	PartType() ContentType
}

// TextPart is a plain text segment.
type TextPart struct {
	Text string
}

func (TextPart) PartType() ContentType { return ContentText }

// ImagePart is an image segment, either inline (Data) or by reference (URL).
type ImagePart struct {
	Data     []byte
	MimeType string
	URL      string
}

func (ImagePart) PartType() ContentType { return ContentImage }

// AudioPart is a raw audio segment. Format names the encoding (e.g. "pcm16",
// "mp3", "mulaw"); SampleRate is in Hz.
type AudioPart struct {
	Data       []byte
	Format     string
	SampleRate int
}

func (AudioPart) PartType() ContentType { return ContentAudio }

// VideoPart is a video segment, either inline (Data) or by reference (URL).
type VideoPart struct {
	Data     []byte
	MimeType string
	URL      string
}

func (VideoPart) PartType() ContentType { return ContentVideo }

// FilePart is an opaque file attachment.
type FilePart struct {
	Data     []byte
	Name     string
	MimeType string
}

func (FilePart) PartType() ContentType { return ContentFile }
