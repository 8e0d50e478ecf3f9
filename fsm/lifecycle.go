package fsm

import (
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/market"
	"github.com/canopy-network/amm/swap"
	"github.com/canopy-network/amm/token"
)

/*
	Every pool instruction validates in the same order before it writes anything:

	1. the pool status allows the operation (a missing pool is uninitialized)
	2. every supplied account is the derived one and the user signed
	3. numeric preconditions and the engine's result
	4. the user holds enough funds

	The surrounding store transaction makes the whole instruction atomic, so a failure at any point leaves no trace.
*/

var poolAccountNames = [poolAccountCount]string{
	"id", "authority", "lpMint", "baseVault", "quoteVault", "lpVault", "openOrders", "targetOrders", "withdrawQueue",
	"market", "baseMint", "quoteMint",
}

// call is the context of one pool instruction
type call struct {
	sm      *StateMachine
	rw      lib.RWStoreI
	ins     *lib.Instruction
	signers lib.Signers
	pool    *Pool
	keys    *PoolKeys
	market  *market.Market
	user    crypto.PublicKey
}

// requireStatus() loads the pool and checks its status is one of allowed
func (c *call) requireStatus(op string, allowed ...Status) (err lib.ErrorI) {
	if c.pool, err = GetPool(c.rw, c.sm.program, c.ins.Accounts[accId]); err != nil {
		return
	}
	for _, status := range allowed {
		if c.pool.Status == status {
			return nil
		}
	}
	return ErrInvalidPoolState(c.pool.Id.String(), c.pool.Status, op)
}

// matchAccounts() compares the supplied pool accounts with the derived ones and checks the user signed;
// a non-nil nonce is compared with the derived nonce
func (c *call) matchAccounts(nonce *uint8) (err lib.ErrorI) {
	accounts := c.ins.Accounts
	if c.market, err = c.sm.market.LoadMarket(c.rw, accounts[accMarket]); err != nil {
		return
	}
	if c.market.BaseMint != accounts[accBaseMint] {
		return ErrAccountMismatch("baseMint", c.market.BaseMint.String(), accounts[accBaseMint].String())
	}
	if c.market.QuoteMint != accounts[accQuoteMint] {
		return ErrAccountMismatch("quoteMint", c.market.QuoteMint.String(), accounts[accQuoteMint].String())
	}
	if c.keys, err = c.sm.registry.DerivePoolKeys(c.market.Address, c.market.BaseMint, c.market.QuoteMint); err != nil {
		return
	}
	for i, expected := range c.keys.Accounts() {
		if accounts[i] != expected {
			return ErrAccountMismatch(poolAccountNames[i], expected.String(), accounts[i].String())
		}
	}
	if nonce != nil && *nonce != c.keys.Nonce {
		return ErrNonceMismatch(c.keys.Nonce, *nonce)
	}
	c.user = accounts[accUserOwner]
	if !c.signers.Contains(c.user) {
		return ErrUnauthorized(c.user.String())
	}
	return nil
}

// userAccount() loads the user token account at position i and checks its mint and owner
func (c *call) userAccount(i int, name string, mint crypto.PublicKey) (*token.Account, lib.ErrorI) {
	address := c.ins.Accounts[i]
	acc, err := token.GetAccount(c.rw, address)
	if err != nil {
		return nil, ErrAccountMismatch(name, "a token account", address.String())
	}
	if acc.Mint != mint {
		return nil, ErrAccountMismatch(name+".mint", mint.String(), acc.Mint.String())
	}
	if acc.Owner != c.user {
		return nil, ErrAccountMismatch(name+".owner", c.user.String(), acc.Owner.String())
	}
	return acc, nil
}

// reserves() returns the vault balances and lp supply of a pool
func reserves(s lib.RStoreI, pool *Pool) (base, quote, supply uint64, err lib.ErrorI) {
	b, err := token.GetAccount(s, pool.BaseVault)
	if err != nil {
		return
	}
	q, err := token.GetAccount(s, pool.QuoteVault)
	if err != nil {
		return
	}
	m, err := token.GetMint(s, pool.LpMint)
	if err != nil {
		return
	}
	return b.Amount, q.Amount, m.Supply, nil
}

// allocate() creates whichever pool accounts do not exist yet
func (c *call) allocate() lib.ErrorI {
	k := c.keys
	for _, record := range []struct {
		address crypto.PublicKey
		kind    lib.AccountKind
	}{{k.TargetOrders, lib.AccountKindTargetOrders}, {k.WithdrawQueue, lib.AccountKindWithdrawQueue}} {
		bz, err := lib.GetAccountData(c.rw, record.address, c.sm.program, record.kind)
		if err != nil {
			return err
		}
		if bz != nil {
			continue
		}
		if err = lib.SetAccountData(c.rw, record.address, c.sm.program, record.kind, (&PoolRecord{Pool: k.Id}).Bytes()); err != nil {
			return err
		}
	}
	baseMint, err := token.GetMint(c.rw, k.BaseMint)
	if err != nil {
		return err
	}
	exists, err := token.Exists(c.rw, k.LpMint)
	if err != nil {
		return err
	}
	if !exists {
		if _, err = token.InitializeMint(c.rw, k.LpMint, k.Authority, baseMint.Decimals); err != nil {
			return err
		}
	} else if err = c.requirePoolMint(k.LpMint); err != nil {
		return err
	}
	for _, vault := range []struct {
		name          string
		address, mint crypto.PublicKey
	}{
		{"baseVault", k.BaseVault, k.BaseMint}, {"quoteVault", k.QuoteVault, k.QuoteMint}, {"lpVault", k.LpVault, k.LpMint},
	} {
		if exists, err = token.Exists(c.rw, vault.address); err != nil {
			return err
		}
		if !exists {
			if _, err = token.InitializeAccount(c.rw, vault.address, vault.mint, k.Authority); err != nil {
				return err
			}
			continue
		}
		if err = c.requirePoolVault(vault.name, vault.address, vault.mint); err != nil {
			return err
		}
	}
	return nil
}

// requirePoolMint() checks an existing lp mint is an empty mint of the pool authority
func (c *call) requirePoolMint(address crypto.PublicKey) lib.ErrorI {
	m, err := token.GetMint(c.rw, address)
	if err != nil {
		return ErrAccountMismatch("lpMint", "a mint", address.String())
	}
	if m.MintAuthority != c.keys.Authority {
		return ErrAccountMismatch("lpMint.authority", c.keys.Authority.String(), m.MintAuthority.String())
	}
	if m.Supply != 0 {
		return ErrLPSupplyNotZero(c.keys.Id.String(), m.Supply)
	}
	return nil
}

// requirePoolVault() checks an existing vault holds mint and belongs to the pool authority
func (c *call) requirePoolVault(name string, address, mint crypto.PublicKey) lib.ErrorI {
	acc, err := token.GetAccount(c.rw, address)
	if err != nil {
		return ErrAccountMismatch(name, "a token account", address.String())
	}
	if acc.Mint != mint {
		return ErrAccountMismatch(name+".mint", mint.String(), acc.Mint.String())
	}
	if acc.Owner != c.keys.Authority {
		return ErrAccountMismatch(name+".owner", c.keys.Authority.String(), acc.Owner.String())
	}
	return nil
}

// newPoolRecord() starts the pool record from the derived keys and the market
func (c *call) newPoolRecord() (*Pool, lib.ErrorI) {
	pool := newPool(c.keys, c.sm.dex)
	pool.BaseLotSize, pool.QuoteLotSize = c.market.BaseLotSize, c.market.QuoteLotSize
	base, err := token.GetMint(c.rw, c.keys.BaseMint)
	if err != nil {
		return nil, err
	}
	quote, err := token.GetMint(c.rw, c.keys.QuoteMint)
	if err != nil {
		return nil, err
	}
	pool.BaseDecimals, pool.QuoteDecimals = base.Decimals, quote.Decimals
	return pool, nil
}

// preInitialize() allocates the pool's accounts so Initialize only has to fund them
func (c *call) preInitialize(x *PreInitialize) (*Receipt, lib.ErrorI) {
	if err := c.requireStatus("pre initialize", StatusUninitialized); err != nil {
		return nil, err
	}
	if err := c.matchAccounts(&x.Nonce); err != nil {
		return nil, err
	}
	if err := c.allocate(); err != nil {
		return nil, err
	}
	pool, err := c.newPoolRecord()
	if err != nil {
		return nil, err
	}
	pool.Status, pool.Owner = StatusPreInitialized, c.keys.Authority
	if err = SetPool(c.rw, c.sm.program, pool); err != nil {
		return nil, err
	}
	return newReceipt(x, c.sm.program, pool), nil
}

// initialize() funds the vaults, mints the first lp supply and opens the pool
func (c *call) initialize(x *Initialize) (*Receipt, lib.ErrorI) {
	// 1. status
	if err := c.requireStatus("initialize", StatusUninitialized, StatusPreInitialized); err != nil {
		return nil, err
	}
	// 2. accounts
	if err := c.matchAccounts(&x.Nonce); err != nil {
		return nil, err
	}
	if err := c.allocate(); err != nil {
		return nil, err
	}
	userBase, err := c.userAccount(accUserBase, "userBase", c.keys.BaseMint)
	if err != nil {
		return nil, err
	}
	userQuote, err := c.userAccount(accUserQuote, "userQuote", c.keys.QuoteMint)
	if err != nil {
		return nil, err
	}
	// the caller's lp account is opened on demand
	userLp := c.ins.Accounts[accUserLp]
	exists, err := token.Exists(c.rw, userLp)
	if err != nil {
		return nil, err
	}
	if !exists {
		if !crypto.IsOnCurve(userLp[:]) {
			return nil, ErrAccountMismatch("userLp", "an on curve address", userLp.String())
		}
		if _, err = token.InitializeAccount(c.rw, userLp, c.keys.LpMint, c.user); err != nil {
			return nil, err
		}
	}
	if _, err = c.userAccount(accUserLp, "userLp", c.keys.LpMint); err != nil {
		return nil, err
	}
	vaultBase, vaultQuote, supply, err := reserves(c.rw, &Pool{BaseVault: c.keys.BaseVault, QuoteVault: c.keys.QuoteVault, LpMint: c.keys.LpMint})
	if err != nil {
		return nil, err
	}
	if supply != 0 {
		return nil, ErrLPSupplyNotZero(c.keys.Id.String(), supply)
	}
	// 3. numeric
	config := c.sm.Config.PoolConfig
	if config.TradeFeeBps >= swap.BpsDenominator {
		return nil, swap.ErrInvalidFee(config.TradeFeeBps)
	}
	if x.InitBase == 0 || x.InitQuote == 0 {
		return nil, swap.ErrInvalidAmount("initial amounts must be positive")
	}
	totalBase, err := swap.AddChecked(vaultBase, x.InitBase)
	if err != nil {
		return nil, err
	}
	totalQuote, err := swap.AddChecked(vaultQuote, x.InitQuote)
	if err != nil {
		return nil, err
	}
	lp, err := swap.InitialLiquidity(totalBase, totalQuote)
	if err != nil {
		return nil, err
	}
	if lp <= config.LockedLiquidity {
		return nil, swap.ErrInsufficientLiquidity("initial liquidity does not exceed the locked amount")
	}
	// 4. balances
	if userBase.Amount < x.InitBase {
		return nil, token.ErrInsufficientFunds(userBase.Address.String(), userBase.Amount, x.InitBase)
	}
	if userQuote.Amount < x.InitQuote {
		return nil, token.ErrInsufficientFunds(userQuote.Address.String(), userQuote.Amount, x.InitQuote)
	}
	// effects
	if _, err = c.sm.market.InitOpenOrders(c.rw, c.keys.MarketId, c.keys.OpenOrders, c.keys.Authority); err != nil {
		return nil, err
	}
	if err = token.Transfer(c.rw, userBase.Address, c.keys.BaseVault, c.user, x.InitBase); err != nil {
		return nil, err
	}
	if err = token.Transfer(c.rw, userQuote.Address, c.keys.QuoteVault, c.user, x.InitQuote); err != nil {
		return nil, err
	}
	if err = token.MintTo(c.rw, c.keys.LpMint, userLp, c.keys.Authority, lp-config.LockedLiquidity); err != nil {
		return nil, err
	}
	if config.LockedLiquidity != 0 {
		if err = token.MintTo(c.rw, c.keys.LpMint, c.keys.LpVault, c.keys.Authority, config.LockedLiquidity); err != nil {
			return nil, err
		}
	}
	pool := c.pool
	if pool.Status == StatusUninitialized {
		if pool, err = c.newPoolRecord(); err != nil {
			return nil, err
		}
	}
	now := c.sm.unixNow()
	pool.Status, pool.OpenTime = StatusInitialized, max(x.OpenTime, now)
	pool.FeeBps, pool.LockedLiquidity, pool.Owner = config.TradeFeeBps, config.LockedLiquidity, c.user
	if c.sm.owner != nil {
		pool.Owner = *c.sm.owner
	}
	if err = SetPool(c.rw, c.sm.program, pool); err != nil {
		return nil, err
	}
	r := newReceipt(x, c.sm.program, pool)
	r.Init = &InitEvent{
		Time:          now,
		OpenTime:      pool.OpenTime,
		BaseDecimals:  pool.BaseDecimals,
		QuoteDecimals: pool.QuoteDecimals,
		BaseLotSize:   pool.BaseLotSize,
		QuoteLotSize:  pool.QuoteLotSize,
		BaseAmount:    totalBase,
		QuoteAmount:   totalQuote,
		LpMinted:      lp - config.LockedLiquidity,
		LpLocked:      config.LockedLiquidity,
		Market:        pool.Market,
	}
	return r, nil
}

// deposit() adds liquidity at the current reserve ratio
func (c *call) deposit(x *Deposit) (*Receipt, lib.ErrorI) {
	if err := c.requireStatus("deposit", StatusInitialized); err != nil {
		return nil, err
	}
	if err := c.matchAccounts(nil); err != nil {
		return nil, err
	}
	userBase, userQuote, userLp, err := c.liquidityAccounts()
	if err != nil {
		return nil, err
	}
	vaultBase, vaultQuote, supply, err := reserves(c.rw, c.pool)
	if err != nil {
		return nil, err
	}
	d, err := swap.ProportionalDeposit(vaultBase, vaultQuote, supply, x.MaxBase, x.MaxQuote, swap.BaseSide(x.BaseSide))
	if err != nil {
		return nil, err
	}
	if userBase.Amount < d.UsedBase {
		return nil, token.ErrInsufficientFunds(userBase.Address.String(), userBase.Amount, d.UsedBase)
	}
	if userQuote.Amount < d.UsedQuote {
		return nil, token.ErrInsufficientFunds(userQuote.Address.String(), userQuote.Amount, d.UsedQuote)
	}
	if err = token.Transfer(c.rw, userBase.Address, c.pool.BaseVault, c.user, d.UsedBase); err != nil {
		return nil, err
	}
	if err = token.Transfer(c.rw, userQuote.Address, c.pool.QuoteVault, c.user, d.UsedQuote); err != nil {
		return nil, err
	}
	if err = token.MintTo(c.rw, c.pool.LpMint, userLp.Address, c.pool.Authority, d.Minted); err != nil {
		return nil, err
	}
	r := newReceipt(x, c.sm.program, c.pool)
	r.Deposit = &DepositEvent{
		MaxBase:     x.MaxBase,
		MaxQuote:    x.MaxQuote,
		BaseSide:    x.BaseSide,
		PoolBase:    vaultBase,
		PoolQuote:   vaultQuote,
		PoolLp:      supply,
		DeductBase:  d.UsedBase,
		DeductQuote: d.UsedQuote,
		MintLp:      d.Minted,
	}
	return r, nil
}

// withdraw() burns lp for a proportional share of both vaults
func (c *call) withdraw(x *Withdraw) (*Receipt, lib.ErrorI) {
	if err := c.requireStatus("withdraw", StatusInitialized, StatusWithdrawOnly); err != nil {
		return nil, err
	}
	if err := c.matchAccounts(nil); err != nil {
		return nil, err
	}
	userBase, userQuote, userLp, err := c.liquidityAccounts()
	if err != nil {
		return nil, err
	}
	if x.LpAmount == 0 {
		return nil, swap.ErrInvalidAmount("withdraw amount must be positive")
	}
	if userLp.Amount < x.LpAmount {
		return nil, ErrInsufficientLpBalance(userLp.Address.String(), userLp.Amount, x.LpAmount)
	}
	// funds resting on the market come home before the share is computed
	settledBase, settledQuote, err := c.sm.market.SettleOpenOrders(c.rw, c.pool.Market, c.pool.OpenOrders, c.pool.Authority, c.pool.BaseVault, c.pool.QuoteVault)
	if err != nil {
		return nil, err
	}
	vaultBase, vaultQuote, supply, err := reserves(c.rw, c.pool)
	if err != nil {
		return nil, err
	}
	w, err := swap.ProportionalWithdraw(vaultBase, vaultQuote, supply, x.LpAmount)
	if err != nil {
		return nil, err
	}
	if w.Base == 0 && w.Quote == 0 {
		return nil, swap.ErrInvalidAmount("withdraw too small to return any reserves")
	}
	if err = token.Burn(c.rw, userLp.Address, c.pool.LpMint, c.user, x.LpAmount); err != nil {
		return nil, err
	}
	if err = token.Transfer(c.rw, c.pool.BaseVault, userBase.Address, c.pool.Authority, w.Base); err != nil {
		return nil, err
	}
	if err = token.Transfer(c.rw, c.pool.QuoteVault, userQuote.Address, c.pool.Authority, w.Quote); err != nil {
		return nil, err
	}
	r := newReceipt(x, c.sm.program, c.pool)
	r.Withdraw = &WithdrawEvent{
		WithdrawLp:   x.LpAmount,
		UserLp:       userLp.Amount,
		PoolBase:     vaultBase,
		PoolQuote:    vaultQuote,
		PoolLp:       supply,
		SettledBase:  settledBase,
		SettledQuote: settledQuote,
		OutBase:      w.Base,
		OutQuote:     w.Quote,
	}
	return r, nil
}

// setStatus() lets the pool owner disable the pool or restrict it to withdrawals
func (c *call) setStatus(x *SetStatus) (*Receipt, lib.ErrorI) {
	if err := c.requireStatus("set status", StatusInitialized, StatusDisabled, StatusWithdrawOnly); err != nil {
		return nil, err
	}
	if err := c.matchAccounts(nil); err != nil {
		return nil, err
	}
	if c.user != c.pool.Owner {
		return nil, ErrUnauthorized(c.user.String())
	}
	status := Status(x.Status)
	if !status.Settable() {
		return nil, ErrInvalidStatus(x.Status)
	}
	c.pool.Status = status
	if err := SetPool(c.rw, c.sm.program, c.pool); err != nil {
		return nil, err
	}
	return newReceipt(x, c.sm.program, c.pool), nil
}

// liquidityAccounts() loads the user's base, quote and lp accounts
func (c *call) liquidityAccounts() (base, quote, lp *token.Account, err lib.ErrorI) {
	if base, err = c.userAccount(accUserBase, "userBase", c.pool.BaseMint); err != nil {
		return
	}
	if quote, err = c.userAccount(accUserQuote, "userQuote", c.pool.QuoteMint); err != nil {
		return
	}
	lp, err = c.userAccount(accUserLp, "userLp", c.pool.LpMint)
	return
}
