// Package state holds the client-side view of the caller's posts. Every change
// flows through Reduce as a tagged action result, and nothing changes before
// the server has answered.
package state

import (
	"context"
	"errors"
	"slices"
	"sync"

	"postboard/internal/client"
)

// FallbackError is shown when a rejection carries no server message.
const FallbackError = "Something went wrong,Please try again later!"

type Kind int

const (
	CreatePost Kind = iota
	ListPosts
	GetPost
	UpdatePost
	DeletePost
)

func (k Kind) String() string {
	switch k {
	case CreatePost:
		return "posts/createPost"
	case ListPosts:
		return "posts/getAllPosts"
	case GetPost:
		return "posts/getPostById"
	case UpdatePost:
		return "posts/updatePost"
	case DeletePost:
		return "posts/deletePost"
	default:
		return "posts/unknown"
	}
}

type Phase int

const (
	Pending Phase = iota
	Fulfilled
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	default:
		return "rejected"
	}
}

// Action is the result of one phase of an async post operation.
// Post is set for fulfilled single-post results, Posts for a fulfilled list,
// Err for a rejection.
type Action struct {
	Kind  Kind
	Phase Phase
	Post  *client.Post
	Posts []client.Post
	Err   error
}

type State struct {
	Loading bool
	Posts   []client.Post
	Error   string
}

// Newest returns the posts ordered by UpdatedAt, latest first.
func (s State) Newest() []client.Post {
	out := slices.Clone(s.Posts)
	slices.SortStableFunc(out, func(a, b client.Post) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// Reduce returns the state that follows s after a.
func Reduce(s State, a Action) State {
	switch a.Phase {
	case Pending:
		s.Loading = true
		s.Error = ""
		return s
	case Rejected:
		s.Loading = false
		s.Error = errorMessage(a.Err)
		return s
	}

	s.Loading = false
	switch a.Kind {
	case CreatePost:
		if a.Post != nil {
			s.Posts = append(slices.Clone(s.Posts), *a.Post)
		}
	case ListPosts:
		s.Posts = slices.Clone(a.Posts)
		if s.Posts == nil {
			s.Posts = []client.Post{}
		}
	case GetPost:
		if a.Post == nil {
			s.Posts = []client.Post{}
		} else {
			s.Posts = []client.Post{*a.Post}
		}
	case UpdatePost:
		if a.Post != nil {
			posts := slices.Clone(s.Posts)
			for i := range posts {
				if posts[i].ID == a.Post.ID {
					posts[i] = *a.Post
				}
			}
			s.Posts = posts
		}
	case DeletePost:
		if a.Post != nil {
			id := a.Post.ID
			s.Posts = slices.DeleteFunc(slices.Clone(s.Posts), func(p client.Post) bool {
				return p.ID == id
			})
		}
	}
	return s
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackError
}

// API is the subset of client.Client the store dispatches to.
type API interface {
	ListPosts(ctx context.Context) ([]client.Post, error)
	GetPost(ctx context.Context, id string) (*client.Post, error)
	CreatePost(ctx context.Context, data client.PostData) (*client.Post, error)
	UpdatePost(ctx context.Context, id string, data client.PostData) (*client.Post, error)
	DeletePost(ctx context.Context, id string) (*client.Post, error)
}

// Store runs post operations against an API and keeps the reduced state.
type Store struct {
	api API

	mu          sync.Mutex
	state       State
	subscribers []func(Action, State)
}

func NewStore(api API) *Store {
	return &Store{api: api, state: State{Posts: []client.Post{}}}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called after every dispatched action.
func (s *Store) Subscribe(fn func(Action, State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(a, next)
	}
	return next
}

func (s *Store) List(ctx context.Context) error {
	s.Dispatch(Action{Kind: ListPosts, Phase: Pending})
	posts, err := s.api.ListPosts(ctx)
	if err != nil {
		s.Dispatch(Action{Kind: ListPosts, Phase: Rejected, Err: err})
		return err
	}
	s.Dispatch(Action{Kind: ListPosts, Phase: Fulfilled, Posts: posts})
	return nil
}

func (s *Store) Get(ctx context.Context, id string) error {
	return s.runOne(GetPost, func() (*client.Post, error) { return s.api.GetPost(ctx, id) })
}

func (s *Store) Create(ctx context.Context, data client.PostData) error {
	return s.runOne(CreatePost, func() (*client.Post, error) { return s.api.CreatePost(ctx, data) })
}

func (s *Store) Update(ctx context.Context, id string, data client.PostData) error {
	return s.runOne(UpdatePost, func() (*client.Post, error) { return s.api.UpdatePost(ctx, id, data) })
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.runOne(DeletePost, func() (*client.Post, error) { return s.api.DeletePost(ctx, id) })
}

func (s *Store) runOne(kind Kind, call func() (*client.Post, error)) error {
	s.Dispatch(Action{Kind: kind, Phase: Pending})
	post, err := call()
	if err != nil {
		s.Dispatch(Action{Kind: kind, Phase: Rejected, Err: err})
		return err
	}
	s.Dispatch(Action{Kind: kind, Phase: Fulfilled, Post: post})
	return nil
}
