////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package room

import (
	"github.com/pkg/errors"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/cryptops/paillier"
	"gitlab.com/elixxir/aggregator/storage"
)

// matchVotes pairs every member of room with exactly one vote. The check is
// symmetric: no vote may name an unknown or repeated member, and no member
// may be left without a vote.
func matchVotes(room *storage.Room, votes []Vote) (map[uint64][]byte, error) {
	if len(votes) != len(room.Members) {
		return nil, errors.WithMessagef(collection.ErrIncompleteVotes,
			"got %d votes for %d members", len(votes), len(room.Members))
	}

	declared := make(map[uint64]struct{}, len(room.Members))
	for _, member := range room.Members {
		declared[member.MemberId] = struct{}{}
	}

	byMember := make(map[uint64][]byte, len(votes))
	for _, v := range votes {
		if _, ok := declared[v.Member]; !ok {
			return nil, errors.WithMessagef(collection.ErrUnknownMember,
				"member %d", v.Member)
		}
		if _, ok := byMember[v.Member]; ok {
			return nil, errors.WithMessagef(collection.ErrDuplicateVote,
				"member %d", v.Member)
		}
		byMember[v.Member] = v.Ciphertext
	}
	return byMember, nil
}

// fold combines vote into total. An empty total takes the vote as is.
func fold(pk *paillier.PublicKey, total, vote []byte) ([]byte, error) {
	c, err := paillier.DecodeCiphertext(pk, vote)
	if err != nil {
		return nil, err
	}
	if len(total) == 0 {
		return paillier.EncodeCiphertext(c), nil
	}

	running, err := paillier.DecodeCiphertext(pk, total)
	if err != nil {
		return nil, errors.WithMessage(err, "stored total does not decode")
	}
	sum, err := paillier.Add(pk, running, c)
	if err != nil {
		return nil, err
	}
	return paillier.EncodeCiphertext(sum), nil
}
