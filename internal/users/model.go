// Package users はユーザーアカウントの永続化を提供します。
package users

// User は登録済みアカウントです。Password にはダイジェストのみを保持します。
type User struct {
	ID       int64  `db:"id"`
	Email    string `db:"email"`
	Password string `db:"password"`
	Name     string `db:"name"`
}
