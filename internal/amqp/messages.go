package amqp

import (
	"encoding/json"
	"time"

	"pcfdash/internal/dashboard"
)

// RefreshCompletedMessage announces a finished refresh so other
// consumers (alerting, exports) can react without polling the API.
type RefreshCompletedMessage struct {
	Generation  uint64         `json:"generation"`
	FetchedAt   time.Time      `json:"fetched_at"`
	RowCount    int            `json:"row_count"`
	ClusterRows map[string]int `json:"cluster_rows"`
	SourceErrs  []string       `json:"source_errors,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewRefreshCompletedMessage summarizes a refresh result for the wire.
func NewRefreshCompletedMessage(res *dashboard.RefreshResult) *RefreshCompletedMessage {
	msg := &RefreshCompletedMessage{
		Generation:  res.Generation,
		FetchedAt:   res.FetchedAt,
		RowCount:    len(res.Rows),
		ClusterRows: make(map[string]int, len(res.Clusters)),
		Timestamp:   time.Now(),
	}
	for _, report := range res.Clusters {
		msg.ClusterRows[report.Cluster.Key] = len(report.Rows)
	}
	for name := range res.Errors {
		msg.SourceErrs = append(msg.SourceErrs, name)
	}
	return msg
}

// ToJSON converts the message to JSON bytes.
func (m *RefreshCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshCompletedMessageFromJSON creates a message from JSON bytes.
func RefreshCompletedMessageFromJSON(data []byte) (*RefreshCompletedMessage, error) {
	var msg RefreshCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
