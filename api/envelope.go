package api

import (
	"time"

	"github.com/finwatch/newswire/pkg/models"
)

// Envelope tags. Every message on a subscriber connection is one JSON
// object carrying exactly one of these tags.
const (
	TypeConnectionAck   = "connection-ack"
	TypeInitialSnapshot = "initial-snapshot"
	TypeArticleUpdate   = "article-update"
	TypeSummaryUpdate   = "summary-update"
	TypePing            = "ping"
	TypePong            = "pong"
	TypeError           = "error"
)

// Envelope is the tagged message exchanged with subscribers. Count is
// a pointer so snapshot and article-update envelopes can carry an
// explicit zero while the other variants omit the field entirely.
type Envelope struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Count     *int      `json:"count,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func ackEnvelope() Envelope {
	return Envelope{
		Type:      TypeConnectionAck,
		Message:   "connected to newswire stream",
		Timestamp: time.Now().UTC(),
	}
}

// snapshotEnvelope always carries a count and a non-nil list so a
// client can tell an empty store apart from a dropped message.
func snapshotEnvelope(articles []models.Article) Envelope {
	if articles == nil {
		articles = []models.Article{}
	}
	n := len(articles)
	return Envelope{
		Type:      TypeInitialSnapshot,
		Message:   "recent articles",
		Count:     &n,
		Data:      articles,
		Timestamp: time.Now().UTC(),
	}
}

func articleUpdateEnvelope(articles []models.Article) Envelope {
	n := len(articles)
	return Envelope{
		Type:      TypeArticleUpdate,
		Count:     &n,
		Data:      articles,
		Timestamp: time.Now().UTC(),
	}
}

func summaryUpdateEnvelope(summary models.Summary) Envelope {
	return Envelope{
		Type:      TypeSummaryUpdate,
		Data:      summary,
		Timestamp: time.Now().UTC(),
	}
}

func pongEnvelope() Envelope {
	return Envelope{Type: TypePong, Timestamp: time.Now().UTC()}
}

func errorEnvelope(msg string) Envelope {
	return Envelope{Type: TypeError, Message: msg, Timestamp: time.Now().UTC()}
}
