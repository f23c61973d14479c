package models

import "sort"

// Thread is a root comment with its direct replies.
type Thread struct {
	Comment
	Replies []Comment `json:"replies"`
}

// AssembleThreads groups comments into one-level threads. Replies attach to
// the root their parent chain reaches; comments whose chain does not reach
// a root are dropped. Roots and replies are ordered by creation time, ties
// keeping stored order.
func AssembleThreads(comments []Comment) []Thread {
	byID := make(map[string]*Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}

	threads := make([]Thread, 0, len(comments))
	rootIdx := make(map[string]int)
	for _, c := range comments {
		if c.IsRoot() {
			rootIdx[c.ID] = len(threads)
			threads = append(threads, Thread{Comment: c, Replies: []Comment{}})
		}
	}

	for _, c := range comments {
		if c.IsRoot() {
			continue
		}
		root, ok := walkToRoot(byID, *c.ParentID)
		if !ok {
			continue
		}
		idx := rootIdx[root]
		threads[idx].Replies = append(threads[idx].Replies, c)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].CreatedAt.Before(threads[j].CreatedAt)
	})
	for i := range threads {
		replies := threads[i].Replies
		sort.SliceStable(replies, func(a, b int) bool {
			return replies[a].CreatedAt.Before(replies[b].CreatedAt)
		})
	}
	return threads
}
