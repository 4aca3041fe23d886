/*
Package bridge implements the initiating side of a hash time locked
cross chain transfer.

An originator locks value under a hash lock and a block height deadline.
The transfer is completed by revealing the pre-image of the hash lock
before the deadline. After the deadline anyone can refund the locked value
back to the originator. Value attributed to an originator is settled by the
registered counterparty using withdraw.

The package is split into the TransferLedger (transfers and balances), the
AccessControl (owner and counterparty identities), the Gateway (the only
component talking to the fungible value ledger) and the Controller that
composes them. Every Controller operation runs in a savepoint so a failed
operation leaves no trace in the store.
*/
package bridge
