package comment

import (
	"context"
	"sync"
)

var _ commentRepo = (*repoMock)(nil)

// repoMock is an in-memory commentRepo used in handler tests.
type repoMock struct {
	mutex    sync.Mutex
	nextID   int
	comments map[int]*Comment
	// addErr, when set, is returned by AddComment
	addErr error
}

func newRepoMock(comments ...*Comment) *repoMock {
	m := &repoMock{
		nextID:   1,
		comments: make(map[int]*Comment),
	}
	for _, c := range comments {
		m.comments[c.ID] = c
		if c.ID >= m.nextID {
			m.nextID = c.ID + 1
		}
	}
	return m
}

func (m *repoMock) AddComment(_ context.Context, comment *Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	comment.ID = m.nextID
	m.nextID++
	m.comments[comment.ID] = comment
	return nil
}

func (m *repoMock) GetComment(_ context.Context, id int) (*Comment, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, ErrCommentNotFound
	}
	return c, nil
}

func (m *repoMock) DeleteComment(_ context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.comments[id]; !ok {
		return ErrCommentNotFound
	}
	delete(m.comments, id)
	return nil
}
