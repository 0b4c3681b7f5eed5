package app

import appscreen "github.com/chmouel/lazystage/internal/app/screen"

func init() {
	appscreen.SetFileIconFunc(deviconForPath)
}
