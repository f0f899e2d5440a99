package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/haierkeys/folio-lifecycle-service/pkg/code"
)

var validate = validator.New()

// validateParams maps validator failures to InvalidInput codes
// validateParams 将校验失败映射为参数错误码
func validateParams(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return code.ErrorInvalidParams.WithDetails(err.Error())
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Field() == "Title" {
			return code.ErrorInvalidTitle.WithDetails(fe.Error())
		}
		details = append(details, fe.Error())
	}
	return code.ErrorInvalidParams.WithDetails(details...)
}

// storageError turns a gateway failure into a StorageUnavailable code, codes pass through
// storageError 将存储层错误转换为存储不可用错误码，已是错误码的直接返回
func storageError(err error) error {
	if err == nil {
		return nil
	}
	var c *code.Code
	if errors.As(err, &c) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return code.ErrorStorageTimeout.WithDetails(err.Error())
	}
	return code.ErrorStorageUnavailable.WithDetails(err.Error())
}

func withTimeout(ctx context.Context, cfg *ServiceConfig) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, cfg.OperationTimeout)
}

func publicURL(prefix, slug string) string {
	return strings.TrimRight(prefix, "/") + "/" + slug
}
