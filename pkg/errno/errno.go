package errno

// Errno carries a stable business error code alongside its message.
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// WithMessage returns a copy of the errno carrying a more specific message,
// keeping the stable code.
func (e Errno) WithMessage(msg string) Errno {
	e.Message = msg
	return e
}

// Decode maps an error onto a (code, message) pair for the API envelope.
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	default:
		return InternalServerError.Code, err.Error()
	}
}

// Common errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
)

// Business errors (20000+)
var (
	ErrUserNotFound     = Errno{Code: 20001, Message: "User not found"}
	ErrUserExists       = Errno{Code: 20002, Message: "User with this email already exists"}
	ErrWalletNotFound   = Errno{Code: 20101, Message: "Wallet not found"}
	ErrWalletExists     = Errno{Code: 20102, Message: "Wallet address already registered"}
	ErrNetworkNotFound  = Errno{Code: 20201, Message: "Blockchain network not found"}
	ErrDepositNotFound  = Errno{Code: 20301, Message: "Deposit not found"}
	ErrInvalidAddress   = Errno{Code: 20401, Message: "Invalid address format"}
	ErrInvalidTxHash    = Errno{Code: 20402, Message: "Invalid transaction hash format"}
	ErrDuplicateDeposit = Errno{Code: 20403, Message: "Deposit with this transaction hash already exists"}
)
