package pathview

import "github.com/abhisek/cognigen/internal/content"

// row is one selectable line of the outline: a topic, or a submodule when
// sub >= 0.
type row struct {
	topic int
	sub   int
}

func (r row) isTopic() bool { return r.sub < 0 }

// buildRows flattens the outline. Submodules are listed only under expanded topics.
func buildRows(topics []content.Topic, expanded map[string]bool) []row {
	var rows []row
	for ti, t := range topics {
		rows = append(rows, row{topic: ti, sub: -1})
		if !expanded[t.ID] {
			continue
		}
		for si := range t.Submodules {
			rows = append(rows, row{topic: ti, sub: si})
		}
	}
	return rows
}

// indexOf finds the row for a topic id and optional submodule id.
func indexOf(rows []row, topics []content.Topic, topicID, subID string) int {
	for i, r := range rows {
		t := topics[r.topic]
		if t.ID != topicID {
			continue
		}
		if subID == "" && r.isTopic() {
			return i
		}
		if !r.isTopic() && t.Submodules[r.sub].ID == subID {
			return i
		}
	}
	return -1
}
