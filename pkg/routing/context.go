package routing

import (
	"context"
	"slices"
)

type (
	requiredRolesKey struct{}
	transactionKey   struct{}
)

// WithRequiredRoles records the roles the matched route demands.
func WithRequiredRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, requiredRolesKey{}, slices.Clone(roles))
}

// RequiredRoles returns the roles recorded by WithRequiredRoles.
func RequiredRoles(ctx context.Context) []string {
	roles, _ := ctx.Value(requiredRolesKey{}).([]string)
	return roles
}

// WithTransaction records the transaction name of the matched route.
func WithTransaction(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, transactionKey{}, name)
}

// Transaction returns the name recorded by WithTransaction, or "".
func Transaction(ctx context.Context) string {
	name, _ := ctx.Value(transactionKey{}).(string)
	return name
}

// TransactionKey is the context key under which WithTransaction stores the
// name, for use with log extractors.
func TransactionKey() any { return transactionKey{} }
