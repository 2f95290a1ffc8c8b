// Package thread turns the flat comment list returned by the gateway into
// the two-level tree the UI renders: root comments in server order, each
// carrying its direct replies in server order.
package thread

import (
	"fmt"

	"github.com/eventup/eventup/internal/model"
)

// Build partitions a flat comment list into threads. Replies attach to the
// root of their parent chain; a reply to a reply is flattened under the
// original root. Replies whose parent chain leaves the input set are
// dropped. Structurally invalid input (zero id, duplicate id, self-parent)
// is a contract violation and fails fast.
func Build(comments []model.Comment) ([]model.Thread, error) {
	byID := make(map[int64]model.Comment, len(comments))
	for _, c := range comments {
		if c.ID <= 0 {
			return nil, fmt.Errorf("comment with invalid id %d", c.ID)
		}
		if c.ParentID != nil && *c.ParentID == c.ID {
			return nil, fmt.Errorf("comment %d is its own parent", c.ID)
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate comment id %d", c.ID)
		}
		byID[c.ID] = c
	}

	threads := make([]model.Thread, 0, len(comments))
	slot := make(map[int64]int, len(comments))
	for _, c := range comments {
		if c.Root() {
			slot[c.ID] = len(threads)
			threads = append(threads, model.Thread{Root: c})
		}
	}
	for _, c := range comments {
		if c.Root() {
			continue
		}
		rootID, ok := resolveRoot(c, byID)
		if !ok {
			// Orphaned reply, drop it.
			continue
		}
		i := slot[rootID]
		threads[i].Replies = append(threads[i].Replies, c)
	}
	return threads, nil
}

// resolveRoot walks the parent chain up to a root comment. Returns false
// when the chain leaves the input set or loops.
func resolveRoot(c model.Comment, byID map[int64]model.Comment) (int64, bool) {
	seen := map[int64]bool{c.ID: true}
	cur := c
	for !cur.Root() {
		parent, ok := byID[*cur.ParentID]
		if !ok || seen[parent.ID] {
			return 0, false
		}
		seen[parent.ID] = true
		cur = parent
	}
	return cur.ID, true
}

// Append adds a newly created root comment to the end of the thread list.
func Append(threads []model.Thread, c model.Comment) []model.Thread {
	return append(threads, model.Thread{Root: c})
}

// Reply appends a newly created reply to the named root's reply list.
func Reply(threads []model.Thread, rootID int64, c model.Comment) ([]model.Thread, error) {
	for i := range threads {
		if threads[i].Root.ID == rootID {
			threads[i].Replies = append(threads[i].Replies, c)
			return threads, nil
		}
	}
	return threads, fmt.Errorf("no thread with root %d", rootID)
}

// Remove deletes a comment from the tree. Removing a root removes its whole
// thread, replies included.
func Remove(threads []model.Thread, id int64) []model.Thread {
	out := threads[:0]
	for _, t := range threads {
		if t.Root.ID == id {
			continue
		}
		replies := t.Replies
		for j, r := range t.Replies {
			if r.ID == id {
				replies = append(append([]model.Comment{}, t.Replies[:j]...), t.Replies[j+1:]...)
				break
			}
		}
		t.Replies = replies
		out = append(out, t)
	}
	return out
}

// UpdateComment applies fn to the comment with the given id, wherever it
// sits in the tree. Reports whether the id was found.
func UpdateComment(threads []model.Thread, id int64, fn func(*model.Comment)) bool {
	for i := range threads {
		if threads[i].Root.ID == id {
			fn(&threads[i].Root)
			return true
		}
		for j := range threads[i].Replies {
			if threads[i].Replies[j].ID == id {
				fn(&threads[i].Replies[j])
				return true
			}
		}
	}
	return false
}

// Find returns the comment with the given id from the tree.
func Find(threads []model.Thread, id int64) (model.Comment, bool) {
	var found model.Comment
	ok := UpdateComment(threads, id, func(c *model.Comment) { found = *c })
	return found, ok
}
