package util

import (
	"os/exec"
	"runtime"
)

// OpenBrowser 打开系统默认浏览器访问 url。
// 平台主命令失败后逐个尝试备选命令，全部失败时返回最初的错误。
func OpenBrowser(url string) error {
	var primary *exec.Cmd
	var fallbacks []*exec.Cmd

	switch runtime.GOOS {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		primary = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		fallbacks = append(fallbacks, exec.Command("explorer", url))
	case "darwin":
		primary = exec.Command("open", url)
	default:
		primary = exec.Command("xdg-open", url)
		for _, name := range []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"} {
			fallbacks = append(fallbacks, exec.Command(name, url))
		}
	}

	err := primary.Start()
	if err == nil {
		return nil
	}
	for _, cmd := range fallbacks {
		if cmd.Start() == nil {
			return nil
		}
	}
	return err
}
