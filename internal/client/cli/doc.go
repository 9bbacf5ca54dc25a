// Package cli implements vaultctl, the command line client for the vault
// service.
//
// Every command maps onto one HTTP route:
//
//	create      POST /upload
//	status      GET  /vault/{vaultId}/status
//	tx          GET  /vault/{vaultId}/tx
//	destroy-tx  GET  /vault/{vaultId}/destroy-tx
//	cids        GET  /vault/tx/{txHash}/cids
//	download    GET  /vault/tx/{txHash}/files
//	list        GET  /owners/{address}/vaults
//	ping        GET  /
//
// Transaction descriptors are printed as JSON, ready to be handed to a
// wallet for signing. vaultctl never signs anything itself.
package cli
