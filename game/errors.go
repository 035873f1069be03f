package game

// Kind classifies why an operation was rejected.
type Kind string

const (
	// KindValidation 房间/玩家不存在、房间已满、人数不足等，可以告知调用者
	KindValidation Kind = "validation"
	// KindAuthorization 非主持人执行主持人操作、非狼人发起击杀等
	KindAuthorization Kind = "authorization"
	// KindDuplicate 本回合已记录的动作被重复提交，幂等忽略
	KindDuplicate Kind = "duplicate"
)

// Error is a rejected game operation.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrValidation) works.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrDuplicate     = &Error{Kind: KindDuplicate}
)

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func Duplicate(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}
