// internal/httpserver/sessions.go
//
// Active game sessions.
// Engines are cached by game id; a miss loads the stored snapshot. Each
// session has its own mutex, so requests against one game are serialized
// while different games proceed in parallel. Every mutation is written back
// to the store before the response is sent; a failed write drops the cached
// engine so the next request reloads the last stored state.

package httpserver

import (
	"context"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/robalobadob/marbles/internal/game"
	"github.com/robalobadob/marbles/internal/seed"
	"github.com/robalobadob/marbles/internal/store"
)

type session struct {
	mu     sync.Mutex
	id     string
	engine *game.Engine
	aiRand *rand.Rand // AI choices, separate from the dice stream
}

type sessions struct {
	mu    sync.Mutex
	m     map[string]*session
	store store.Store
	salt  string
}

func newSessions(st store.Store, salt string) *sessions {
	return &sessions{m: make(map[string]*session), store: st, salt: salt}
}

// create registers a fresh game and returns its id. The dice seed depends on
// the id, so the initial state is stored first and the engine rebuilt from it.
func (c *sessions) create(ctx context.Context, e *game.Engine) (string, error) {
	id, err := c.store.Create(ctx, e.Snapshot())
	if err != nil {
		return "", err
	}
	sess, err := c.build(id, e.Snapshot())
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.m[id] = sess
	c.mu.Unlock()
	return id, nil
}

// acquire returns the locked session for id. Callers must call release.
func (c *sessions) acquire(ctx context.Context, id string) (*session, error) {
	c.mu.Lock()
	sess, ok := c.m[id]
	if !ok {
		sess = &session{id: id}
		c.m[id] = sess
	}
	c.mu.Unlock()

	sess.mu.Lock()
	if sess.engine != nil {
		return sess, nil
	}

	rec, err := c.store.Get(ctx, id)
	if err == nil {
		var loaded *session
		if loaded, err = c.build(id, rec.State); err == nil {
			sess.engine, sess.aiRand = loaded.engine, loaded.aiRand
			return sess, nil
		}
	}
	sess.mu.Unlock()
	c.evict(sess)
	return nil, err
}

func (c *sessions) release(sess *session) { sess.mu.Unlock() }

// save writes the session state to the store. Must hold sess.mu.
func (c *sessions) save(ctx context.Context, sess *session) error {
	if err := c.store.Update(ctx, sess.id, sess.engine.Snapshot()); err != nil {
		sess.engine = nil
		return err
	}
	return nil
}

// remove deletes id from the store, then from the cache. The session stays
// registered and locked until the store delete returns, so a concurrent
// acquire waits and then finds the game gone.
func (c *sessions) remove(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	sess, ok := c.m[id]
	if !ok {
		sess = &session{id: id}
		c.m[id] = sess
	}
	c.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	deleted, err := c.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	sess.engine = nil
	c.evict(sess)
	return deleted, nil
}

// evict drops sess from the cache unless it was already replaced.
func (c *sessions) evict(sess *session) {
	c.mu.Lock()
	if c.m[sess.id] == sess {
		delete(c.m, sess.id)
	}
	c.mu.Unlock()
}

func (c *sessions) build(id string, snap game.Snapshot) (*session, error) {
	e, err := game.Load(snap, game.WithSeed(seed.ForGame(c.salt, id, snap.TurnCount)))
	if err != nil {
		return nil, err
	}
	return &session{
		id:     id,
		engine: e,
		aiRand: rand.New(rand.NewSource(seed.ForGame(c.salt, id+"/ai", snap.TurnCount))),
	}, nil
}
