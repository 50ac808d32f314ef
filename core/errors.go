package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Recommend 错误：INVALID_DATA（空语料、未训练、无交互数据）
//   - Itinerary 错误：INVALID_INPUT（请求参数非法）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_DATA"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "recommend", "itinerary"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInvalidData   = "INVALID_DATA"   // 训练数据不合法
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleRecommend = "recommend" // 推荐模型模块
	ModuleItinerary = "itinerary" // 行程编排模块
)

// 推荐模型的数据校验错误。调用方据此决定是否降级为纯热度推荐。
var (
	ErrEmptyCorpus    = NewDomainError(ModuleRecommend, ErrorCodeInvalidData, "recommend: corpus is empty or contains only empty documents")
	ErrNotFitted      = NewDomainError(ModuleRecommend, ErrorCodeInvalidData, "recommend: model is not fitted")
	ErrNoInteractions = NewDomainError(ModuleRecommend, ErrorCodeInvalidData, "recommend: no interactions to fit")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsDataValidation 检查错误是否为训练数据校验错误（INVALID_DATA）
func IsDataValidation(err error) bool {
	return hasCode(err, ErrorCodeInvalidData)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

func hasModuleCode(err error, module, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Module == module && domainErr.Code == code
	}
	return false
}
