////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Version information printed by the version command. Update SEMVER and the
// dependency list when go.mod changes.

package cmd

const GITVERSION = `unreleased`
const SEMVER = "0.1.0"
const DEPENDENCIES = `module gitlab.com/elixxir/aggregator

go 1.19

require (
	github.com/jinzhu/copier v0.4.0
	github.com/mitchellh/go-homedir v1.1.0
	github.com/pkg/errors v0.9.1
	github.com/redis/go-redis/v9 v9.7.0
	github.com/spf13/cobra v1.1.1
	github.com/spf13/jwalterweatherman v1.1.0
	github.com/spf13/viper v1.7.1
	github.com/stretchr/testify v1.8.0
	gitlab.com/elixxir/crypto v0.0.7-0.20230109232445-64f3e6192c3a
	gitlab.com/xx_network/crypto v0.0.5-0.20230109222209-557b66d73c33
	gitlab.com/xx_network/primitives v0.0.4-0.20221219230308-4b5550a9247d
	golang.org/x/crypto v0.5.0
	gopkg.in/yaml.v2 v2.4.0
	gorm.io/driver/postgres v1.1.2
	gorm.io/driver/sqlite v1.1.6
	gorm.io/gorm v1.21.16
)
`
