package blog

import (
	"context"
	"sync"
)

var _ blogRepo = (*repoMock)(nil)

// repoMock is an in-memory blogRepo used in handler tests.
type repoMock struct {
	mutex  sync.Mutex
	nextID int
	blogs  map[int]*Blog
}

func newRepoMock(blogs ...*Blog) *repoMock {
	m := &repoMock{
		nextID: 1,
		blogs:  make(map[int]*Blog),
	}
	for _, b := range blogs {
		m.blogs[b.ID] = b
		if b.ID >= m.nextID {
			m.nextID = b.ID + 1
		}
	}
	return m
}

func (m *repoMock) AddBlog(_ context.Context, blog *Blog) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	blog.ID = m.nextID
	m.nextID++
	m.blogs[blog.ID] = blog
	return nil
}

func (m *repoMock) UpdateBlog(_ context.Context, id int, title, content string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	b, ok := m.blogs[id]
	if !ok {
		return ErrBlogNotFound
	}
	b.Title = title
	b.Content = content
	return nil
}

func (m *repoMock) DeleteBlog(_ context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.blogs[id]; !ok {
		return ErrBlogNotFound
	}
	delete(m.blogs, id)
	return nil
}

func (m *repoMock) Feed(_ context.Context) ([]FeedItem, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var feed []FeedItem
	for _, b := range m.blogs {
		feed = append(feed, FeedItem{Blog: *b})
	}
	return feed, nil
}

func (m *repoMock) GetBlog(_ context.Context, id int) (*Detail, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	b, ok := m.blogs[id]
	if !ok {
		return nil, ErrBlogNotFound
	}
	return &Detail{Blog: *b, Comments: []Comment{}}, nil
}

func (m *repoMock) GetBlogOwner(_ context.Context, id int) (*Blog, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	b, ok := m.blogs[id]
	if !ok {
		return nil, ErrBlogNotFound
	}
	return &Blog{ID: b.ID, UserID: b.UserID}, nil
}
