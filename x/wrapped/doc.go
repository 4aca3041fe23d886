/*
Package wrapped implements a wrapped-native fungible token.

Every account holds two balances: native value and wrapped tokens. Native
value enters the ledger by issuance and is converted one to one into tokens
by Deposit, and back by Withdraw. Tokens move with Transfer and, on behalf
of another account, with TransferFrom within the limit set by Approve.

Transfer and TransferFrom report an insufficient balance or allowance by
returning false. An error is returned only when the store cannot be read or
written.
*/
package wrapped
