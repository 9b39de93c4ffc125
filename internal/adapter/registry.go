package adapter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/quakewatch/quakewatch/internal/parser"
)

// Kind names one of the accepts-probe categories in priority order.
type Kind int

const (
	KindFDSN Kind = iota
	KindWebSocket
	KindHTTP
	KindCSV
	KindTwitter
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindFDSN:
		return "fdsn"
	case KindWebSocket:
		return "websocket"
	case KindHTTP:
		return "http"
	case KindCSV:
		return "csv"
	case KindTwitter:
		return "twitter"
	default:
		return "unknown"
	}
}

// dialectDelimiters are the separators the CSV dialect sniffer accepts.
var dialectDelimiters = []byte{',', ';', '|', '\t'}

// sniffCSV reports whether sample looks like delimited text: its first
// line contains one of the accepted delimiters at least twice.
func sniffCSV(sample []byte) bool {
	firstLine := sample
	if i := strings.IndexByte(string(sample), '\n'); i >= 0 {
		firstLine = sample[:i]
	}
	for _, d := range dialectDelimiters {
		if strings.Count(string(firstLine), string(d)) >= 2 {
			return true
		}
	}
	return false
}

// Classify runs the §4.1 accepts-probe order against a resource
// descriptor: a URI for FDSN/WebSocket/HTTP, or raw bytes for CSV
// sniffing, or a literal "twitter://" credentials marker.
func Classify(resource string, sample []byte) Kind {
	if u, err := url.Parse(resource); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "fdsn":
			return KindFDSN
		case "ws", "wss":
			return KindWebSocket
		case "http", "https":
			return KindHTTP
		case "twitter":
			return KindTwitter
		}
	}
	if sample != nil && sniffCSV(sample) {
		return KindCSV
	}
	return KindUnknown
}

// Registry maps resolved Kinds to a Factory that builds the concrete
// Receiver, so new adapter kinds can register at startup without the
// accepts-probe logic knowing about them.
type Registry struct {
	factories map[Kind]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

func (r *Registry) Register(kind Kind, f Factory) {
	r.factories[kind] = f
}

// Build classifies resource and constructs the matching Receiver via its
// registered Factory.
func (r *Registry) Build(resource string, sample []byte, dispatcher *parser.Dispatcher) (Receiver, error) {
	kind := Classify(resource, sample)
	if kind == KindUnknown {
		return nil, fmt.Errorf("adapter: no receiver accepts resource %q", resource)
	}
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("adapter: no factory registered for kind %s", kind)
	}
	return f(resource, dispatcher), nil
}
