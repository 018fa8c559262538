package app

// Command はバイナリの起動モードを表す。
// 単一バイナリでAPIサーバー、クリーンアップワーカー、マイグレーション、
// Dockerヘルスチェックを切り替える。
type Command string

const (
	// CommandServe はAPIサーバーとして起動する。
	CommandServe Command = "serve"
	// CommandWorker はセッションクリーンアップワーカーとして起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを1回実行して終了する。
	// distrolessイメージにはシェルがないため、HEALTHCHECKから自バイナリを呼ぶ。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// ParseCommand は先頭引数をサブコマンドとして解析する。
// 引数なし、または未知のコマンドはserveにフォールバックする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
