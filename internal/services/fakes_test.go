package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"github.com/primedraws/primedraws-backend/internal/models"
	"github.com/primedraws/primedraws-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memStore is an in-memory stand-in for the Mongo collections. One mutex
// covers everything so the transactional primitives (InsertPoolAndLock,
// ClaimBatch, ClaimCash) stay atomic the way the real store's transactions
// make them.
type memStore struct {
	mu                  sync.Mutex
	competitions        map[primitive.ObjectID]models.Competition
	tickets             map[primitive.ObjectID]models.Ticket
	prizes              map[primitive.ObjectID]models.PrizeDefinition
	orders              map[primitive.ObjectID]models.Order
	fulfillments        map[primitive.ObjectID]models.PrizeFulfillment
	users               map[primitive.ObjectID]models.User
	walletTxs           map[primitive.ObjectID]models.WalletTransaction
	claimConflicts      int // pending injected ClaimBatch conflicts
	fulfillmentFailures int // pending injected CreateMany failures
}

func newMemStore() *memStore {
	return &memStore{
		competitions: make(map[primitive.ObjectID]models.Competition),
		tickets:      make(map[primitive.ObjectID]models.Ticket),
		prizes:       make(map[primitive.ObjectID]models.PrizeDefinition),
		orders:       make(map[primitive.ObjectID]models.Order),
		fulfillments: make(map[primitive.ObjectID]models.PrizeFulfillment),
		users:        make(map[primitive.ObjectID]models.User),
		walletTxs:    make(map[primitive.ObjectID]models.WalletTransaction),
	}
}

func (s *memStore) addCompetition(c models.Competition) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.competitions[c.ID] = c
	return c.ID
}

func (s *memStore) addPrize(p models.PrizeDefinition) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.prizes[p.ID] = p
	return p.ID
}

func (s *memStore) addOrder(o models.Order) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	s.orders[o.ID] = o
	return o.ID
}

func (s *memStore) addUser(u models.User) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = u
	return u.ID
}

func (s *memStore) addFulfillment(f models.PrizeFulfillment) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	s.fulfillments[f.ID] = f
	return f.ID
}

func (s *memStore) ticketsOf(competitionID primitive.ObjectID) []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Ticket
	for _, t := range s.tickets {
		if t.CompetitionID == competitionID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (s *memStore) competition(id primitive.ObjectID) models.Competition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.competitions[id]
}

func (s *memStore) fulfillment(id primitive.ObjectID) models.PrizeFulfillment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fulfillments[id]
}

func (s *memStore) walletTxCount(fulfillmentID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tx := range s.walletTxs {
		if tx.FulfillmentID == fulfillmentID {
			n++
		}
	}
	return n
}

func (s *memStore) injectClaimConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimConflicts = n
}

func (s *memStore) injectFulfillmentFailures(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fulfillmentFailures = n
}

// --- Competition repository ---

type memCompetitionRepo struct{ s *memStore }

func (r *memCompetitionRepo) Create(ctx context.Context, c *models.Competition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.s.competitions[c.ID] = *c
	return nil
}

func (r *memCompetitionRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.competitions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := c
	return &out, nil
}

func (r *memCompetitionRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.CompetitionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.competitions[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	c.Status = status
	r.s.competitions[id] = c
	return nil
}

func (r *memCompetitionRepo) FindByStatus(ctx context.Context, status models.CompetitionStatus) ([]*models.Competition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Competition
	for _, c := range r.s.competitions {
		if c.Status == status {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- Ticket repository ---

type memTicketRepo struct{ s *memStore }

func (r *memTicketRepo) InsertPoolAndLock(ctx context.Context, competitionID primitive.ObjectID, tickets []*models.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.competitions[competitionID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if c.TicketPoolLocked || c.TicketsSold != 0 {
		return apperrors.New(apperrors.ErrCodePoolAlreadyLocked, "pool lock guard missed")
	}
	for _, t := range tickets {
		t.ID = primitive.NewObjectID()
		r.s.tickets[t.ID] = *t
	}
	c.TicketPoolLocked = true
	c.PoolGeneratedAt = time.Now()
	r.s.competitions[competitionID] = c
	return nil
}

func (r *memTicketRepo) ClaimBatch(ctx context.Context, competitionID, orderID, userID primitive.ObjectID, count int) ([]*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.claimConflicts > 0 {
		r.s.claimConflicts--
		return nil, repositories.ErrClaimConflict
	}

	var unclaimed []models.Ticket
	for _, t := range r.s.tickets {
		if t.CompetitionID == competitionID && t.Status == models.TicketStatusUnclaimed {
			unclaimed = append(unclaimed, t)
		}
	}
	if len(unclaimed) < count {
		return nil, apperrors.Newf(apperrors.ErrCodeInsufficientTickets,
			"only %d tickets remain, requested %d", len(unclaimed), count)
	}
	sort.Slice(unclaimed, func(i, j int) bool { return unclaimed[i].Number < unclaimed[j].Number })

	now := time.Now()
	claimed := make([]*models.Ticket, 0, count)
	for _, t := range unclaimed[:count] {
		t.Status = models.TicketStatusClaimed
		oid, uid := orderID, userID
		t.OrderID = &oid
		t.UserID = &uid
		t.ClaimedAt = now
		r.s.tickets[t.ID] = t
		cp := t
		claimed = append(claimed, &cp)
	}

	c := r.s.competitions[competitionID]
	c.TicketsSold += count
	r.s.competitions[competitionID] = c
	return claimed, nil
}

func (r *memTicketRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := t
	return &out, nil
}

func (r *memTicketRepo) FindByOrderID(ctx context.Context, orderID primitive.ObjectID) ([]*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Ticket
	for _, t := range r.s.tickets {
		if t.OrderID != nil && *t.OrderID == orderID {
			cp := t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *memTicketRepo) MarkRevealed(ctx context.Context, id, userID primitive.ObjectID, at time.Time) (*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok || t.Status != models.TicketStatusClaimed || t.UserID == nil || *t.UserID != userID {
		return nil, mongo.ErrNoDocuments
	}
	if !t.Revealed {
		t.Revealed = true
		t.RevealedAt = at
		r.s.tickets[id] = t
	}
	out := t
	return &out, nil
}

func (r *memTicketRepo) CountByStatus(ctx context.Context, competitionID primitive.ObjectID, status models.TicketStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tickets {
		if t.CompetitionID == competitionID && t.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memTicketRepo) CountWithPrizes(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tickets {
		if t.CompetitionID == competitionID && t.PrizeID != nil {
			n++
		}
	}
	return n, nil
}

func (r *memTicketRepo) CountRevealed(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tickets {
		if t.CompetitionID == competitionID && t.Revealed {
			n++
		}
	}
	return n, nil
}

func (r *memTicketRepo) CountsByPrize(ctx context.Context, competitionID primitive.ObjectID) (map[primitive.ObjectID]models.PrizeTicketCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[primitive.ObjectID]models.PrizeTicketCounts)
	for _, t := range r.s.tickets {
		if t.CompetitionID != competitionID || t.PrizeID == nil {
			continue
		}
		c := out[*t.PrizeID]
		if t.Status == models.TicketStatusClaimed {
			c.Allocated++
		} else {
			c.Remaining++
		}
		out[*t.PrizeID] = c
	}
	return out, nil
}

func (r *memTicketRepo) CountTotal(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tickets {
		if t.CompetitionID == competitionID {
			n++
		}
	}
	return n, nil
}

// --- Prize repository ---

type memPrizeRepo struct{ s *memStore }

func (r *memPrizeRepo) Create(ctx context.Context, p *models.PrizeDefinition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.s.prizes[p.ID] = *p
	return nil
}

func (r *memPrizeRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeDefinition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.prizes[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := p
	return &out, nil
}

func (r *memPrizeRepo) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.PrizeDefinition, error) {
	return r.find(competitionID, false)
}

func (r *memPrizeRepo) FindActiveByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.PrizeDefinition, error) {
	return r.find(competitionID, true)
}

func (r *memPrizeRepo) find(competitionID primitive.ObjectID, activeOnly bool) ([]*models.PrizeDefinition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.PrizeDefinition
	for _, p := range r.s.prizes {
		if p.CompetitionID != competitionID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

// --- Order repository ---

type memOrderRepo struct{ s *memStore }

func (r *memOrderRepo) Create(ctx context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := o
	return &out, nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	o.Status = status
	r.s.orders[id] = o
	return nil
}

// --- Fulfillment repository ---

type memFulfillmentRepo struct{ s *memStore }

func (r *memFulfillmentRepo) CreateMany(ctx context.Context, fulfillments []*models.PrizeFulfillment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.fulfillmentFailures > 0 {
		r.s.fulfillmentFailures--
		return errors.New("transient fulfillment write failure")
	}
	now := time.Now()
	for _, f := range fulfillments {
		f.ID = primitive.NewObjectID()
		f.CreatedAt = now
		f.UpdatedAt = now
		r.s.fulfillments[f.ID] = *f
	}
	return nil
}

func (r *memFulfillmentRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeFulfillment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.fulfillments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := f
	return &out, nil
}

func (r *memFulfillmentRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.PrizeFulfillment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.PrizeFulfillment
	for _, f := range r.s.fulfillments {
		if f.UserID == userID {
			cp := f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memFulfillmentRepo) FindByTicketIDs(ctx context.Context, ticketIDs []primitive.ObjectID) ([]*models.PrizeFulfillment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[primitive.ObjectID]struct{}, len(ticketIDs))
	for _, id := range ticketIDs {
		wanted[id] = struct{}{}
	}
	var out []*models.PrizeFulfillment
	for _, f := range r.s.fulfillments {
		if _, ok := wanted[f.TicketID]; ok {
			cp := f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memFulfillmentRepo) TransitionChoice(ctx context.Context, id, userID primitive.ObjectID, to models.FulfillmentStatus, now time.Time) (*models.PrizeFulfillment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.fulfillments[id]
	if !ok || f.UserID != userID || f.Status.IsTerminal() || !f.ClaimDeadline.After(now) {
		return nil, repositories.ErrNoTransition
	}
	f.Status = to
	f.ChosenAt = now
	f.UpdatedAt = now
	r.s.fulfillments[id] = f
	out := f
	return &out, nil
}

func (r *memFulfillmentRepo) ClaimCash(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (*models.PrizeFulfillment, float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.fulfillments[id]
	if !ok || f.UserID != userID || f.Status.IsTerminal() || !f.ClaimDeadline.After(now) {
		return nil, 0, repositories.ErrNoTransition
	}
	f.Status = models.FulfillmentStatusCashClaimed
	f.ResolvedAt = now
	f.UpdatedAt = now
	r.s.fulfillments[id] = f

	txID := primitive.NewObjectID()
	r.s.walletTxs[txID] = models.WalletTransaction{
		ID:            txID,
		UserID:        userID,
		FulfillmentID: id,
		Amount:        f.Value,
		Source:        "CASH_ALTERNATIVE",
		CreatedAt:     now,
	}

	u := r.s.users[userID]
	u.WalletBalance += f.Value
	r.s.users[userID] = u

	out := f
	return &out, u.WalletBalance, nil
}

func (r *memFulfillmentRepo) MarkFulfilled(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.PrizeFulfillment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.fulfillments[id]
	if !ok || f.Status != models.FulfillmentStatusPrizeSelected {
		return nil, repositories.ErrNoTransition
	}
	f.Status = models.FulfillmentStatusFulfilled
	f.ResolvedAt = now
	f.UpdatedAt = now
	r.s.fulfillments[id] = f
	out := f
	return &out, nil
}

func (r *memFulfillmentRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, f := range r.s.fulfillments {
		if !f.Status.IsTerminal() && !f.ClaimDeadline.After(now) {
			f.Status = models.FulfillmentStatusExpired
			f.ResolvedAt = now
			f.UpdatedAt = now
			r.s.fulfillments[id] = f
			n++
		}
	}
	return n, nil
}

// --- Wallet transaction repository ---

type memWalletRepo struct{ s *memStore }

func (r *memWalletRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.WalletTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.WalletTransaction
	for _, tx := range r.s.walletTxs {
		if tx.UserID == userID {
			cp := tx
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memWalletRepo) FindByFulfillmentID(ctx context.Context, fulfillmentID primitive.ObjectID) (*models.WalletTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.walletTxs {
		if tx.FulfillmentID == fulfillmentID {
			cp := tx
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// --- User repository ---

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := u
	return &out, nil
}
