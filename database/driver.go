// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2018-2024 The Divi developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"sort"
	"sync"

	"github.com/TheGreat22/Divi/database/engine"
	"github.com/pkg/errors"
)

var (
	// ErrDbTypeRegistered is returned when a driver is registered for a
	// database type that already has one.
	ErrDbTypeRegistered = errors.New("database type already registered")

	// ErrDbUnknownType is returned when no driver is registered for the
	// requested database type.
	ErrDbUnknownType = errors.New("unknown database type")
)

// Driver defines a structure for backend drivers to use when they registered
// themselves as a backend which implements the engine.Engine interface.
type Driver struct {
	// DbType is the identifier used to uniquely identify a specific
	// database driver.  There can be only one driver with the same name.
	DbType string

	// Open opens the database at path.  When create is set the database
	// must not already exist; otherwise it must.
	Open func(path string, create bool) (engine.Engine, error)
}

var (
	driversMtx sync.RWMutex
	drivers    = make(map[string]*Driver)
)

// RegisterDriver adds a backend database driver to available interfaces.
// ErrDbTypeRegistered will be returned if the database type for the driver has
// already been registered.
func RegisterDriver(driver Driver) error {
	driversMtx.Lock()
	defer driversMtx.Unlock()

	if _, exists := drivers[driver.DbType]; exists {
		return errors.Wrapf(ErrDbTypeRegistered, "driver %q", driver.DbType)
	}
	drivers[driver.DbType] = &driver
	return nil
}

// SupportedDrivers returns a sorted slice of strings that represent the
// database drivers that have been registered and are therefore supported.
func SupportedDrivers() []string {
	driversMtx.RLock()
	defer driversMtx.RUnlock()

	supportedDBs := make([]string, 0, len(drivers))
	for dbType := range drivers {
		supportedDBs = append(supportedDBs, dbType)
	}
	sort.Strings(supportedDBs)
	return supportedDBs
}

// OpenEngine opens the raw storage engine of the given type.
func OpenEngine(dbType, path string, create bool) (engine.Engine, error) {
	driversMtx.RLock()
	drv, exists := drivers[dbType]
	driversMtx.RUnlock()
	if !exists {
		return nil, errors.Wrapf(ErrDbUnknownType, "driver %q", dbType)
	}
	return drv.Open(path, create)
}
