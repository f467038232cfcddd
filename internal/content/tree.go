package content

// Tree mirrors one learning path. It holds either a path or nothing (loading).
// Every value handed out is a deep copy; callers cannot alias tree storage.
//
// Tree is not safe for concurrent use. It is owned by the event loop.
type Tree struct {
	path *Path
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Loaded reports whether a path is present.
func (t *Tree) Loaded() bool {
	return t.path != nil
}

// PathID returns the id of the loaded path, or "".
func (t *Tree) PathID() string {
	if t.path == nil {
		return ""
	}
	return t.path.ID
}

// Load replaces the whole tree.
func (t *Tree) Load(p *Path) {
	t.path = p.Clone()
	if t.path == nil {
		return
	}
	for i := range t.path.Topics {
		ensureSubmodules(&t.path.Topics[i])
	}
}

// Unload drops the path, returning the tree to the loading state.
func (t *Tree) Unload() {
	t.path = nil
}

// Snapshot returns an immutable copy of the current path, or nil.
func (t *Tree) Snapshot() *Path {
	return t.path.Clone()
}

// SetTitle replaces the path title.
func (t *Tree) SetTitle(title string) bool {
	if t.path == nil {
		return false
	}
	t.path.Title = title
	return true
}

// SetProgress replaces the aggregate progress.
func (t *Tree) SetProgress(p Progress) bool {
	if t.path == nil {
		return false
	}
	t.path.Progress = p
	return true
}

// Topic returns a copy of the topic with the given id.
func (t *Tree) Topic(id string) (Topic, bool) {
	i := t.TopicIndex(id)
	if i < 0 {
		return Topic{}, false
	}
	return t.path.Topics[i].Clone(), true
}

// Topics returns a copy of the ordered topic list.
func (t *Tree) Topics() []Topic {
	if t.path == nil {
		return nil
	}
	return cloneTopics(t.path.Topics)
}

// TopicIndex returns the position of the topic, or -1.
func (t *Tree) TopicIndex(id string) int {
	if t.path == nil {
		return -1
	}
	for i := range t.path.Topics {
		if t.path.Topics[i].ID == id {
			return i
		}
	}
	return -1
}

// Submodule returns a copy of the submodule under the given topic.
func (t *Tree) Submodule(topicID, subID string) (Submodule, bool) {
	ti, si := t.subIndex(topicID, subID)
	if si < 0 {
		return Submodule{}, false
	}
	return t.path.Topics[ti].Submodules[si].Clone(), true
}

func (t *Tree) subIndex(topicID, subID string) (int, int) {
	ti := t.TopicIndex(topicID)
	if ti < 0 {
		return -1, -1
	}
	for si := range t.path.Topics[ti].Submodules {
		if t.path.Topics[ti].Submodules[si].ID == subID {
			return ti, si
		}
	}
	return ti, -1
}

// PatchTopic replaces the topic with the same id. It is a no-op returning false
// when the topic no longer exists.
func (t *Tree) PatchTopic(topic Topic) bool {
	i := t.TopicIndex(topic.ID)
	if i < 0 {
		return false
	}
	t.path.Topics[i] = topic.Clone()
	ensureSubmodules(&t.path.Topics[i])
	return true
}

// ReplaceTopicID swaps a topic's identity in place. Used when a temporary id is
// replaced by the server-assigned one.
func (t *Tree) ReplaceTopicID(oldID string, topic Topic) bool {
	i := t.TopicIndex(oldID)
	if i < 0 {
		return false
	}
	t.path.Topics[i] = topic.Clone()
	ensureSubmodules(&t.path.Topics[i])
	return true
}

// PatchSubmodule replaces one submodule by identity under the given topic.
func (t *Tree) PatchSubmodule(topicID string, sub Submodule) bool {
	ti, si := t.subIndex(topicID, sub.ID)
	if si < 0 {
		return false
	}
	t.path.Topics[ti].Submodules[si] = sub.Clone()
	t.path.Topics[ti].CompletedSubmodules = countCompleted(t.path.Topics[ti].Submodules)
	return true
}

// InsertTopic places a topic at position at. Out-of-range positions append.
func (t *Tree) InsertTopic(at int, topic Topic) bool {
	if t.path == nil {
		return false
	}
	topics := t.path.Topics
	if at < 0 || at > len(topics) {
		at = len(topics)
	}
	topics = append(topics, Topic{})
	copy(topics[at+1:], topics[at:])
	topics[at] = topic.Clone()
	ensureSubmodules(&topics[at])
	t.path.Topics = topics
	return true
}

// RemoveTopic deletes a topic and reports where it was.
func (t *Tree) RemoveTopic(id string) (Topic, int, bool) {
	i := t.TopicIndex(id)
	if i < 0 {
		return Topic{}, -1, false
	}
	removed := t.path.Topics[i]
	t.path.Topics = append(t.path.Topics[:i:i], t.path.Topics[i+1:]...)
	return removed, i, true
}

// ReplaceTopics installs a new ordered topic list. Topics missing from the
// list are dropped.
func (t *Tree) ReplaceTopics(topics []Topic) bool {
	if t.path == nil {
		return false
	}
	t.path.Topics = cloneTopics(topics)
	for i := range t.path.Topics {
		ensureSubmodules(&t.path.Topics[i])
	}
	return true
}

// ensureSubmodules keeps at least one submodule under every installed topic.
func ensureSubmodules(tp *Topic) {
	if len(tp.Submodules) > 0 {
		return
	}
	tp.Submodules = []Submodule{PlaceholderSubmodule(tp.Name)}
	tp.CompletedSubmodules = 0
}

// ReplaceSubmodules installs a new ordered submodule list for a topic.
func (t *Tree) ReplaceSubmodules(topicID string, subs []Submodule) bool {
	i := t.TopicIndex(topicID)
	if i < 0 {
		return false
	}
	if len(subs) == 0 {
		subs = []Submodule{PlaceholderSubmodule(t.path.Topics[i].Name)}
	}
	t.path.Topics[i].Submodules = cloneSubmodules(subs)
	t.path.Topics[i].CompletedSubmodules = countCompleted(t.path.Topics[i].Submodules)
	return true
}

// TopicIDs returns the current topic order.
func (t *Tree) TopicIDs() []string {
	if t.path == nil {
		return nil
	}
	ids := make([]string, len(t.path.Topics))
	for i, tp := range t.path.Topics {
		ids[i] = tp.ID
	}
	return ids
}

// SubmoduleIDs returns the current submodule order of a topic.
func (t *Tree) SubmoduleIDs(topicID string) []string {
	i := t.TopicIndex(topicID)
	if i < 0 {
		return nil
	}
	subs := t.path.Topics[i].Submodules
	ids := make([]string, len(subs))
	for j, s := range subs {
		ids[j] = s.ID
	}
	return ids
}
