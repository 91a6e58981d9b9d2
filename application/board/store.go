// Package board holds the authoritative in-memory mirror of one project's
// node graph and the last-write-wins conflict resolution applied to it.
package board

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"nexusboard/application/ports"
	"nexusboard/application/view"
	"nexusboard/domain/node"
	pkgerrors "nexusboard/pkg/errors"
)

// Offset of a child node from its selected folder parent, in canvas units.
const (
	childOffsetX float64 = 40
	childOffsetY float64 = 100
)

// MutationResult reports the outcome of a local mutation. Persisted is false
// when the document store write failed: the optimistic local apply is left in
// place but the caller must not broadcast the mutation, and may choose to
// re-hydrate rather than trust local state indefinitely.
type MutationResult struct {
	Node      node.Node
	Mutation  node.Mutation
	Persisted bool
	Err       error
}

// Store mirrors the node set of the active project. It is the single logical
// owner of that set within the process; peer sessions reach it only through
// the broadcast path (ApplyRemote), never by direct shared access.
type Store struct {
	mu        sync.RWMutex
	projectID string
	nodes     map[string]node.Node

	repo   ports.NodeRepository
	logger *zap.Logger
	clock  func() int64
}

// NewStore creates an empty store bound to a repository.
func NewStore(repo ports.NodeRepository, logger *zap.Logger) *Store {
	return &Store{
		nodes:  make(map[string]node.Node),
		repo:   repo,
		logger: logger,
		clock:  node.NowMillis,
	}
}

// WithClock overrides the millisecond clock, for tests.
func (s *Store) WithClock(clock func() int64) *Store {
	s.clock = clock
	return s
}

// ProjectID returns the active project id.
func (s *Store) ProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectID
}

// SwitchProject discards the current node set wholesale and re-hydrates from
// the document store. In-flight optimistic state for the old project is
// dropped by design.
func (s *Store) SwitchProject(ctx context.Context, projectID string) error {
	fetched, err := s.repo.FetchByProject(ctx, projectID)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to hydrate project "+projectID)
	}

	nodes := make(map[string]node.Node, len(fetched))
	for _, n := range fetched {
		n.Normalize()
		nodes[n.ID] = n
	}

	s.mu.Lock()
	s.projectID = projectID
	s.nodes = nodes
	s.mu.Unlock()

	s.logger.Info("Project hydrated",
		zap.String("projectID", projectID),
		zap.Int("nodes", len(nodes)),
	)
	return nil
}

// Get returns the current state of a node, tombstoned entries included.
func (s *Store) Get(nodeID string) (node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[nodeID]
	return n, ok
}

// Snapshot returns all non-tombstoned nodes for the view pipeline.
func (s *Store) Snapshot() []node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]node.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if !n.Deleted {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of non-tombstoned nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.nodes {
		if !n.Deleted {
			count++
		}
	}
	return count
}

// CreateNode places and stores a new node. With a folder selected the new
// node becomes its child at a fixed offset; otherwise it lands centered in
// the viewport. The placement is a usability policy, not an invariant.
func (s *Store) CreateNode(ctx context.Context, selectedID string, vp view.Viewport) MutationResult {
	s.mu.RLock()
	projectID := s.projectID
	parent, hasParent := s.nodes[selectedID]
	s.mu.RUnlock()

	var n node.Node
	var err error
	if hasParent && parent.Kind == node.KindFolder && !parent.Deleted {
		n, err = node.New(projectID, "New Resource", node.KindNode,
			parent.X+childOffsetX, parent.Y+childOffsetY)
		n.ParentID = parent.ID
	} else {
		cx := vp.ScrollX + vp.Width/2 - node.DefaultWidth/2
		cy := vp.ScrollY + vp.Height/2 - node.DefaultHeight/2
		n, err = node.New(projectID, "New Department", node.KindFolder, cx, cy)
	}
	if err != nil {
		return MutationResult{Err: err}
	}

	return s.ApplyLocal(ctx, node.NewCreate(n))
}

// ApplyLocal optimistically applies a mutation authored by this session,
// stamping it with the current clock, then writes it through to the document
// store. A failed write does not roll the local apply back; the result's
// Persisted flag tells the caller to skip broadcast and surface the fault.
func (s *Store) ApplyLocal(ctx context.Context, m node.Mutation) MutationResult {
	m.Timestamp = s.clock()

	s.mu.Lock()
	var applied node.Node
	switch m.Type {
	case node.MutationCreate:
		if m.Node == nil {
			s.mu.Unlock()
			return MutationResult{Err: pkgerrors.NewValidation("create mutation without node payload")}
		}
		n := *m.Node
		n.Normalize()
		n.LastModified = m.Timestamp
		s.nodes[n.ID] = n
		applied = n
		m.NodeID = n.ID
		m.Node = &n
	default:
		n, ok := s.nodes[m.NodeID]
		if !ok {
			s.mu.Unlock()
			return MutationResult{Err: pkgerrors.NewNotFound("node not found: " + m.NodeID)}
		}
		applyMutation(&n, m)
		s.nodes[m.NodeID] = n
		applied = n
	}
	s.mu.Unlock()

	if err := s.persist(ctx, m, applied); err != nil {
		s.logger.Warn("Mutation persisted locally only",
			zap.String("nodeID", m.NodeID),
			zap.String("type", string(m.Type)),
			zap.Error(err),
		)
		return MutationResult{Node: applied, Mutation: m, Persisted: false, Err: err}
	}

	return MutationResult{Node: applied, Mutation: m, Persisted: true}
}

// ApplyRemote applies a mutation received from a peer session under
// last-write-wins. It reports whether the event was applied or discarded as
// stale. Unknown node ids are applied for creates and ignored otherwise:
// out-of-order delivery may race a move ahead of its create.
func (s *Store) ApplyRemote(m node.Mutation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m.Type {
	case node.MutationCreate:
		if m.Node == nil {
			return false
		}
		if existing, ok := s.nodes[m.Node.ID]; ok && !supersedes(&existing, m.Timestamp) {
			return false
		}
		n := *m.Node
		n.Normalize()
		if m.Timestamp > n.LastModified {
			n.LastModified = m.Timestamp
		}
		s.nodes[n.ID] = n
		return true

	default:
		n, ok := s.nodes[m.NodeID]
		if !ok {
			s.logger.Debug("Remote mutation for unknown node dropped",
				zap.String("nodeID", m.NodeID),
				zap.String("type", string(m.Type)),
			)
			return false
		}
		if !supersedes(&n, m.Timestamp) {
			s.logger.Debug("Stale remote mutation discarded",
				zap.String("nodeID", m.NodeID),
				zap.Int64("eventTS", m.Timestamp),
				zap.Int64("currentTS", n.LastModified),
			)
			return false
		}
		applyMutation(&n, m)
		s.nodes[m.NodeID] = n
		return true
	}
}

// ApplyPeer applies a broadcast mutation and, for moves, writes the surviving
// position through to the document store. Moves are the only mutation that
// arrives exclusively over the broadcast channel; the rest reach the store
// through the HTTP surface before they are relayed. The write is best-effort:
// a store fault never blocks relaying the event onward.
func (s *Store) ApplyPeer(ctx context.Context, m node.Mutation) (bool, error) {
	if !s.ApplyRemote(m) {
		return false, nil
	}

	if m.Type == node.MutationMove {
		x, y := m.X, m.Y
		if _, err := s.repo.Update(ctx, m.NodeID, ports.NodeUpdate{X: &x, Y: &y, LastModified: m.Timestamp}); err != nil {
			s.logger.Warn("Peer move applied locally only",
				zap.String("nodeID", m.NodeID),
				zap.Error(err),
			)
			return true, err
		}
	}
	return true, nil
}

func (s *Store) persist(ctx context.Context, m node.Mutation, applied node.Node) error {
	switch m.Type {
	case node.MutationCreate:
		_, err := s.repo.Create(ctx, applied)
		return err
	case node.MutationMove:
		x, y := m.X, m.Y
		_, err := s.repo.Update(ctx, m.NodeID, ports.NodeUpdate{X: &x, Y: &y, LastModified: m.Timestamp})
		return err
	case node.MutationRename:
		title := m.Title
		_, err := s.repo.Update(ctx, m.NodeID, ports.NodeUpdate{Title: &title, LastModified: m.Timestamp})
		return err
	case node.MutationDelete:
		return s.repo.Tombstone(ctx, m.NodeID)
	default:
		return pkgerrors.NewValidation("unknown mutation type: " + string(m.Type))
	}
}
