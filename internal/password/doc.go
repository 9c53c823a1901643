// Package password はパスワードのハッシュ化と検証を提供します。
//
// 既定の形式は Werkzeug 互換の PBKDF2 ダイジェストです。
//
//	pbkdf2:sha256:600000$<salt>$<hex digest>
//
// ダイジェスト自体にアルゴリズム・反復回数・ソルトが含まれるため、
// 検証時に別途ソルトを保存しておく必要はありません。
// bcrypt のダイジェスト（$2a$ / $2b$ / $2y$）も検証できます。
package password
