package domain

import (
	"errors"
	"strconv"
	"strings"

	"github.com/silverbridge/backend/pkg/jwtx"
)

const kakaoSubjectPrefix = "kakao:"

var ErrNotKakaoSubject = errors.New("domain: not a kakao subject")

// KakaoSubject is the temp token subject for a Kakao account. The prefix
// keeps it apart from account ids, which are ULIDs.
func KakaoSubject(kakaoID int64) string {
	return kakaoSubjectPrefix + strconv.FormatInt(kakaoID, 10)
}

// ParseKakaoSubject reverses KakaoSubject.
func ParseKakaoSubject(sub string) (int64, error) {
	rest, ok := strings.CutPrefix(sub, kakaoSubjectPrefix)
	if !ok {
		return 0, ErrNotKakaoSubject
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNotKakaoSubject
	}
	return id, nil
}

// GuestPrincipal is the identity carried by a temp token.
func GuestPrincipal(kakaoID int64) jwtx.Principal {
	return jwtx.Principal{ID: KakaoSubject(kakaoID), Roles: []string{string(RoleGuest)}}
}
