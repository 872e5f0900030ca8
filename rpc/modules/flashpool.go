package modules

import (
	"errors"
	"math/big"
	"net/http"

	"flashpool/crypto"
	"flashpool/native/flashpool"
	"flashpool/observability/metrics"
)

// LoanResult mirrors the success payload of flash-loan and repayment calls.
// Amounts are decimal strings so JSON consumers never lose precision.
type LoanResult struct {
	Amount         string `json:"amount"`
	Fee            string `json:"fee"`
	TotalRepayment string `json:"totalRepayment"`
}

// FlashpoolModule adapts the pool engine to the RPC surface and records
// operation metrics.
type FlashpoolModule struct {
	engine  *flashpool.Engine
	metrics *metrics.FlashpoolMetrics
}

func NewFlashpoolModule(engine *flashpool.Engine) *FlashpoolModule {
	return &FlashpoolModule{engine: engine, metrics: metrics.Flashpool()}
}

func (m *FlashpoolModule) moduleUnavailable() *ModuleError {
	return &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: "flashpool module not available"}
}

func (m *FlashpoolModule) AddLiquidity(caller crypto.Address, amount *big.Int) (string, *ModuleError) {
	if m == nil || m.engine == nil {
		return "", m.moduleUnavailable()
	}
	accepted, err := m.engine.AddLiquidity(caller, amount)
	if err != nil {
		return "", m.wrapError("flashpool_addLiquidity", err)
	}
	m.syncGauges()
	return accepted.String(), nil
}

func (m *FlashpoolModule) RemoveLiquidity(caller crypto.Address, amount *big.Int) (string, *ModuleError) {
	if m == nil || m.engine == nil {
		return "", m.moduleUnavailable()
	}
	released, err := m.engine.RemoveLiquidity(caller, amount)
	if err != nil {
		return "", m.wrapError("flashpool_removeLiquidity", err)
	}
	m.syncGauges()
	return released.String(), nil
}

func (m *FlashpoolModule) FlashLoan(caller, recipient crypto.Address, amount *big.Int) (*LoanResult, *ModuleError) {
	if m == nil || m.engine == nil {
		return nil, m.moduleUnavailable()
	}
	loan, err := m.engine.FlashLoan(caller, recipient, amount)
	if err != nil {
		return nil, m.wrapError("flashpool_flashLoan", err)
	}
	m.metrics.ObserveLoanOpened(loan.Principal.Cmp(m.engine.GetLiquidity()) > 0)
	m.syncGauges()
	return toLoanResult(loan), nil
}

func (m *FlashpoolModule) RepayFlashLoan(caller crypto.Address) (*LoanResult, *ModuleError) {
	if m == nil || m.engine == nil {
		return nil, m.moduleUnavailable()
	}
	loan, err := m.engine.RepayFlashLoan(caller)
	if err != nil {
		return nil, m.wrapError("flashpool_repayFlashLoan", err)
	}
	m.metrics.ObserveLoanRepaid(loan.Fee)
	m.syncGauges()
	return toLoanResult(loan), nil
}

func (m *FlashpoolModule) SetContractOwner(caller, newOwner crypto.Address) (string, *ModuleError) {
	if m == nil || m.engine == nil {
		return "", m.moduleUnavailable()
	}
	owner, err := m.engine.SetOwner(caller, newOwner)
	if err != nil {
		return "", m.wrapError("flashpool_setContractOwner", err)
	}
	return owner.String(), nil
}

func (m *FlashpoolModule) SetFlashMinting(caller crypto.Address, enabled bool) (bool, *ModuleError) {
	if m == nil || m.engine == nil {
		return false, m.moduleUnavailable()
	}
	value, err := m.engine.SetFlashMinting(caller, enabled)
	if err != nil {
		return false, m.wrapError("flashpool_setFlashMinting", err)
	}
	return value, nil
}

func (m *FlashpoolModule) SetMaxFlashLoan(caller crypto.Address, max *big.Int) (string, *ModuleError) {
	if m == nil || m.engine == nil {
		return "", m.moduleUnavailable()
	}
	value, err := m.engine.SetMaxFlashLoan(caller, max)
	if err != nil {
		return "", m.wrapError("flashpool_setMaxFlashLoan", err)
	}
	return value.String(), nil
}

func (m *FlashpoolModule) ForceClearLoan(caller, borrower crypto.Address) (string, *ModuleError) {
	if m == nil || m.engine == nil {
		return "", m.moduleUnavailable()
	}
	cleared, err := m.engine.ForceClearLoan(caller, borrower)
	if err != nil {
		return "", m.wrapError("flashpool_forceClearLoan", err)
	}
	m.metrics.ObserveForceClear()
	m.syncGauges()
	return cleared.String(), nil
}

func (m *FlashpoolModule) GetLiquidity() (string, *ModuleError) {
	if m == nil || m.engine == nil {
		return "", m.moduleUnavailable()
	}
	return m.engine.GetLiquidity().String(), nil
}

func (m *FlashpoolModule) CalculateFee(amount *big.Int) (string, *ModuleError) {
	if m == nil || m.engine == nil {
		return "", m.moduleUnavailable()
	}
	if amount == nil || amount.Sign() <= 0 {
		return "", &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidParams, Message: "amount must be positive"}
	}
	return m.engine.CalculateFee(amount).String(), nil
}

func (m *FlashpoolModule) HasActiveLoan(borrower crypto.Address) (bool, *ModuleError) {
	if m == nil || m.engine == nil {
		return false, m.moduleUnavailable()
	}
	return m.engine.HasActiveLoan(borrower), nil
}

func (m *FlashpoolModule) GetMaxFlashLoan() (string, *ModuleError) {
	if m == nil || m.engine == nil {
		return "", m.moduleUnavailable()
	}
	return m.engine.GetMaxFlashLoan().String(), nil
}

func toLoanResult(loan *flashpool.Loan) *LoanResult {
	if loan == nil {
		return nil
	}
	return &LoanResult{
		Amount:         loan.Principal.String(),
		Fee:            loan.Fee.String(),
		TotalRepayment: loan.TotalRepayment().String(),
	}
}

func (m *FlashpoolModule) syncGauges() {
	m.metrics.SetLiquidity(m.engine.GetLiquidity())
	m.metrics.SetActiveLoans(m.engine.ActiveLoanCount())
}

func (m *FlashpoolModule) wrapError(method string, err error) *ModuleError {
	m.metrics.ObserveError(method)
	switch {
	case errors.Is(err, flashpool.ErrUnauthorized):
		return &ModuleError{HTTPStatus: http.StatusForbidden, Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, flashpool.ErrInvalidAmount):
		return &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, flashpool.ErrLoanAlreadyActive):
		return &ModuleError{HTTPStatus: http.StatusConflict, Code: codeConflict, Message: err.Error()}
	case errors.Is(err, flashpool.ErrNoActiveLoan):
		return &ModuleError{HTTPStatus: http.StatusNotFound, Code: codeNotFound, Message: err.Error()}
	case errors.Is(err, flashpool.ErrInsufficientFunds):
		// Covers ErrFlashMintingDisabled as well; that sentinel wraps
		// the insufficient-funds failure.
		return &ModuleError{HTTPStatus: http.StatusConflict, Code: codeConflict, Message: err.Error()}
	case errors.Is(err, flashpool.ErrTransferFailed):
		return &ModuleError{HTTPStatus: http.StatusBadGateway, Code: codeServerError, Message: err.Error()}
	default:
		return &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: err.Error()}
	}
}
