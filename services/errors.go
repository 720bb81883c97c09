package services

import (
	"fmt"

	"github.com/ferreirogomes/eden/storage"
)

//region ConflictError

// ConflictError indica username repetido ou uma escrita concorrente que não pôde ser aplicada.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)
	return ok
}

//endregion

//region NotFoundError

type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

//endregion

//region InsufficientFundsError

type InsufficientFundsError struct {
	Msg string
}

func (e *InsufficientFundsError) Error() string {
	return e.Msg
}

func (e *InsufficientFundsError) Is(target error) bool {
	_, ok := target.(*InsufficientFundsError)
	return ok
}

//endregion

//region InvalidArgumentError

type InvalidArgumentError struct {
	Msg string
}

func (e *InvalidArgumentError) Error() string {
	return e.Msg
}

func (e *InvalidArgumentError) Is(target error) bool {
	_, ok := target.(*InvalidArgumentError)
	return ok
}

//endregion

//region StoreError

// StoreError envolve uma falha do store de documentos, com a etapa que falhou.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("falha no store ao %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	_, ok := target.(*StoreError)
	return ok
}

//endregion

//region IdentityError

// IdentityError indica que o documento recém-inserido sumiu antes de receber o ID
// público. É um erro de lógica; quem chama não deve repetir a operação.
type IdentityError struct {
	Collection storage.Collection
	InternalID string
	Err        error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("documento %s/%s não encontrado ao atribuir ID público: %v", e.Collection, e.InternalID, e.Err)
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

//endregion

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
