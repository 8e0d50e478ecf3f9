package fsm

import (
	"bytes"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/market"
	"github.com/canopy-network/amm/store"
	"github.com/canopy-network/amm/token"
)

// MarketProvider is the order book the pools trade against
type MarketProvider interface {
	LoadMarket(s lib.RStoreI, marketId crypto.PublicKey) (*market.Market, lib.ErrorI)
	InitOpenOrders(s lib.RWStoreI, marketId, address, owner crypto.PublicKey) (*market.OpenOrders, lib.ErrorI)
	SettleOpenOrders(s lib.RWStoreI, marketId, address, owner, baseWallet, quoteWallet crypto.PublicKey) (base, quote uint64, err lib.ErrorI)
}

var _ MarketProvider = &market.Provider{}

// StateMachine applies pool and token instructions to the account store
// every instruction runs in its own store transaction: it commits when the instruction succeeds and leaves no trace
// when it fails
type StateMachine struct {
	store    lib.StoreI
	market   MarketProvider
	program  crypto.PublicKey  // the amm program id
	dex      crypto.PublicKey  // the market program id
	registry Registry
	owner    *crypto.PublicKey // configured pool owner; nil means the initializer
	Config   lib.Config
	metrics  *lib.Metrics
	log      lib.LoggerI
	now      func() time.Time

	mu    sync.Mutex                       // guards locks
	locks map[crypto.PublicKey]*sync.Mutex // one lock per pool id
}

// New() creates a new instance of a StateMachine
func New(c lib.Config, db lib.StoreI, metrics *lib.Metrics, log lib.LoggerI) (*StateMachine, lib.ErrorI) {
	program, err := c.AmmProgram()
	if err != nil {
		return nil, err
	}
	dex, err := c.DexProgram()
	if err != nil {
		return nil, err
	}
	sm := &StateMachine{
		store:    db,
		market:   market.NewProvider(dex),
		program:  program,
		dex:      dex,
		registry: NewRegistry(program, c.MaxNonce),
		Config:   c,
		metrics:  metrics,
		log:      log.WithModule("fsm"),
		now:      time.Now,
		locks:    make(map[crypto.PublicKey]*sync.Mutex),
	}
	owner, ok, err := c.OwnerKey()
	if err != nil {
		return nil, err
	}
	if ok {
		sm.owner = &owner
	}
	return sm, nil
}

// WithMarketProvider() swaps the order book implementation
func (s *StateMachine) WithMarketProvider(m MarketProvider) *StateMachine { s.market = m; return s }

// WithClock() swaps the time source used for the open time gate
func (s *StateMachine) WithClock(now func() time.Time) *StateMachine { s.now = now; return s }

// Program() returns the amm program id
func (s *StateMachine) Program() crypto.PublicKey { return s.program }

// DexProgram() returns the market program id
func (s *StateMachine) DexProgram() crypto.PublicKey { return s.dex }

// Registry() returns the address registry of the amm program
func (s *StateMachine) Registry() Registry { return s.registry }

// Store() returns the underlying account store
func (s *StateMachine) Store() lib.StoreI { return s.store }

// ApplyInstruction() executes the instruction atomically and returns its receipt
func (s *StateMachine) ApplyInstruction(ins *lib.Instruction, signers lib.Signers) (receipt *Receipt, err lib.ErrorI) {
	start, kind := time.Now(), s.kind(ins)
	defer func() { s.metrics.UpdateInstruction(kind, err, time.Since(start)) }()
	// operations on one pool are serialized
	defer s.lockPools(ins)()
	err = s.store.Update(func(rw lib.RWStoreI) (e lib.ErrorI) {
		receipt, e = s.execute(rw, ins, signers)
		return
	})
	if err != nil {
		s.log.Debugf("Instruction %s failed: %s", kind, err.Error())
		return nil, err
	}
	s.logReceipt(receipt)
	s.updatePoolMetrics(receipt)
	return receipt, nil
}

// Quote() executes the instruction against a snapshot and throws the writes away
func (s *StateMachine) Quote(ins *lib.Instruction, signers lib.Signers) (*Receipt, lib.ErrorI) {
	ro := s.store.NewReadOnly()
	defer ro.Discard()
	sim := store.NewSimulation(ro)
	defer sim.Discard()
	return s.execute(sim, ins, signers)
}

// execute() routes the instruction to its program
func (s *StateMachine) execute(rw lib.RWStoreI, ins *lib.Instruction, signers lib.Signers) (receipt *Receipt, err lib.ErrorI) {
	// a panic inside a handler fails the instruction instead of the node
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("panic applying instruction: %v\n%s", r, string(debug.Stack()))
			err = ErrInvalidInstruction("execution panicked")
		}
	}()
	if err = signers.RequireOnCurve(); err != nil {
		return nil, err
	}
	switch ins.ProgramId {
	case s.program:
		return s.executePool(rw, ins, signers)
	case token.ProgramId:
		r, e := token.Process(rw, ins, signers)
		if e != nil {
			return nil, e
		}
		return &Receipt{Instruction: r.Instruction, Program: token.ProgramId, Token: r}, nil
	default:
		return nil, ErrUnknownProgram(ins.ProgramId.String())
	}
}

// executePool() decodes a pool instruction and runs its handler
func (s *StateMachine) executePool(rw lib.RWStoreI, ins *lib.Instruction, signers lib.Signers) (*Receipt, lib.ErrorI) {
	p, err := DecodePayload(ins.Data)
	if err != nil {
		return nil, err
	}
	if err = ins.RequireAccounts(poolAccountCount + p.userAccounts()); err != nil {
		return nil, err
	}
	c := &call{sm: s, rw: rw, ins: ins, signers: signers}
	switch x := p.(type) {
	case *PreInitialize:
		return c.preInitialize(x)
	case *Initialize:
		return c.initialize(x)
	case *Deposit:
		return c.deposit(x)
	case *Withdraw:
		return c.withdraw(x)
	case *SetStatus:
		return c.setStatus(x)
	case *SwapBaseIn:
		return c.swapBaseIn(x)
	case *SwapBaseOut:
		return c.swapBaseOut(x)
	case *RouteSwapBaseIn:
		return c.routeSwapBaseIn(x)
	case *RouteSwapBaseOut:
		return c.routeSwapBaseOut(x)
	default:
		return nil, ErrUnknownInstruction(p.Tag())
	}
}

// kind() labels an instruction for metrics and logs
func (s *StateMachine) kind(ins *lib.Instruction) string {
	switch ins.ProgramId {
	case s.program:
		if p, err := DecodePayload(ins.Data); err == nil {
			return p.Name()
		}
		return "pool_unknown"
	case token.ProgramId:
		return "token"
	default:
		return "unknown"
	}
}

// lockPools() takes the locks of every pool the instruction names, in address order, and returns their release
func (s *StateMachine) lockPools(ins *lib.Instruction) (unlock func()) {
	var ids []crypto.PublicKey
	if ins.ProgramId == s.program && len(ins.Accounts) > accId {
		ids = append(ids, ins.Accounts[accId])
		if tag, err := ins.Tag(); err == nil && (tag == TagRouteSwapBaseIn || tag == TagRouteSwapBaseOut) &&
			len(ins.Accounts) > poolAccountCount+accId && ins.Accounts[poolAccountCount+accId] != ids[0] {
			ids = append(ids, ins.Accounts[poolAccountCount+accId])
		}
	}
	slices.SortFunc(ids, func(a, b crypto.PublicKey) int { return bytes.Compare(a[:], b[:]) })
	locks := make([]*sync.Mutex, len(ids))
	s.mu.Lock()
	for i, id := range ids {
		l, ok := s.locks[id]
		if !ok {
			l = new(sync.Mutex)
			s.locks[id] = l
		}
		locks[i] = l
	}
	s.mu.Unlock()
	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// updatePoolMetrics() refreshes the gauges of the pools a receipt touched
func (s *StateMachine) updatePoolMetrics(r *Receipt) {
	if s.metrics == nil || r.Pool == nil {
		return
	}
	s.updateReserves(*r.Pool)
	switch {
	case r.SwapBaseIn != nil:
		s.metrics.UpdateSwap(r.Pool.String(), r.SwapBaseIn.Direction, r.SwapBaseIn.AmountIn)
	case r.SwapBaseOut != nil:
		s.metrics.UpdateSwap(r.Pool.String(), r.SwapBaseOut.Direction, r.SwapBaseOut.AmountIn)
	case r.Route != nil:
		first, second := r.Route.Legs[0], r.Route.Legs[1]
		s.updateReserves(second.Pool)
		s.metrics.UpdateSwap(first.Pool.String(), first.Direction, r.Route.AmountIn)
		s.metrics.UpdateSwap(second.Pool.String(), second.Direction, r.Route.Intermediate)
	}
}

// updateReserves() sets the reserve gauges of one pool
func (s *StateMachine) updateReserves(id crypto.PublicKey) {
	ro := s.store.NewReadOnly()
	defer ro.Discard()
	pool, err := GetPool(ro, s.program, id)
	if err != nil || pool.Status == StatusUninitialized {
		return
	}
	base, quote, supply, err := reserves(ro, pool)
	if err != nil {
		return
	}
	s.metrics.UpdatePool(pool.Id.String(), base, quote, supply)
}

// CreateMarket() registers a market on the local market provider
func (s *StateMachine) CreateMarket(marketId, baseMint, quoteMint crypto.PublicKey, baseLotSize, quoteLotSize uint64) (m *market.Market, err lib.ErrorI) {
	provider, ok := s.market.(*market.Provider)
	if !ok {
		return nil, ErrUnknownProgram(s.dex.String())
	}
	err = s.store.Update(func(rw lib.RWStoreI) (e lib.ErrorI) {
		m, e = provider.CreateMarket(rw, marketId, baseMint, quoteMint, baseLotSize, quoteLotSize)
		return
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Created market %s for %s/%s", marketId, baseMint, quoteMint)
	return m, nil
}

// READ OPERATIONS BELOW

// GetAccount() returns the raw envelope stored at address
func (s *StateMachine) GetAccount(address crypto.PublicKey) (*lib.Account, lib.ErrorI) {
	acc, err := lib.GetAccount(s.store, address)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, lib.ErrAccountNotFound(address.String())
	}
	return acc, nil
}

// GetPool() returns the record of an existing pool
func (s *StateMachine) GetPool(id crypto.PublicKey) (*Pool, lib.ErrorI) {
	pool, err := GetPool(s.store, s.program, id)
	if err != nil {
		return nil, err
	}
	if pool.Status == StatusUninitialized {
		return nil, ErrPoolNotFound(id.String())
	}
	return pool, nil
}

// GetPools() returns every pool record of the program in address order
func (s *StateMachine) GetPools() (pools []*Pool, err lib.ErrorI) {
	ro := s.store.NewReadOnly()
	defer ro.Discard()
	err = lib.IterateAccounts(ro, s.program, lib.AccountKindPool, func(acc *lib.Account) lib.ErrorI {
		pool, e := NewPoolFromBytes(acc.Data)
		if e != nil {
			return e
		}
		pools = append(pools, pool)
		return nil
	})
	return
}

// GetMarket() loads a market from the provider
func (s *StateMachine) GetMarket(marketId crypto.PublicKey) (*market.Market, lib.ErrorI) {
	return s.market.LoadMarket(s.store, marketId)
}

// DerivePoolKeys() derives the keys of a pool under the configured program
func (s *StateMachine) DerivePoolKeys(marketId, baseMint, quoteMint crypto.PublicKey) (*PoolKeys, lib.ErrorI) {
	return s.registry.DerivePoolKeys(marketId, baseMint, quoteMint)
}

// unixNow() returns the clock in unix seconds
func (s *StateMachine) unixNow() uint64 {
	now := s.now().Unix()
	if now < 0 {
		return 0
	}
	return uint64(now)
}
