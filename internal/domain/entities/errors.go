package entities

import "errors"

var (
	// ErrTransfer indicates the artifact could not be fetched
	ErrTransfer = errors.New("transfer failed")

	// ErrIO indicates the artifact could not be written to the staging path
	ErrIO = errors.New("staging write failed")

	// ErrPermission indicates the artifact mode could not be changed
	ErrPermission = errors.New("permission change failed")

	// ErrProcessSpawn indicates the staged artifact could not be launched
	ErrProcessSpawn = errors.New("process spawn failed")

	// ErrIntegrity indicates the artifact did not match its checksum or signature
	ErrIntegrity = errors.New("integrity check failed")
)
