////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package internal

import (
	"time"

	"gitlab.com/elixxir/aggregator/events"
	"gitlab.com/xx_network/primitives/id"
)

// Definition holds everything needed to build an Instance. cmd/conf fills it
// out from the params file.
type Definition struct {
	// Identity allowed to create and finalize rooms
	Owner *id.ID

	// Allows running on the map backend when no database is configured
	DevMode bool

	// Database connection information
	DbUsername string
	DbPassword string
	DbName     string
	DbAddress  string
	DbPort     string

	// Events are published to Redis when an address is set
	Redis events.RedisConfig

	// How long rooms accept votes after creation; zero uses the default
	VotingPeriod time.Duration
}
