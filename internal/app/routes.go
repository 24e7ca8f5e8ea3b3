package app

import (
	"net/http"

	"github.com/vancomm/minesweeper-engine/internal/handlers"
	"github.com/vancomm/minesweeper-engine/internal/highscore"
)

func (a *App) loadRoutes(router *http.ServeMux, deps Deps) {
	base := a.basePath
	scores := highscore.NewBoard(deps.Scores, a.logger)

	game := handlers.NewGameHandler(a.logger, deps.Sessions, scores, deps.WS)
	router.HandleFunc("POST "+base+"/game", game.NewGame)
	router.HandleFunc("GET "+base+"/game/{id}", game.Fetch)
	router.HandleFunc("DELETE "+base+"/game/{id}", game.Delete)
	router.HandleFunc("POST "+base+"/game/{id}/reveal", game.Reveal)
	router.HandleFunc("POST "+base+"/game/{id}/flag", game.Flag)
	router.HandleFunc("POST "+base+"/game/{id}/reset", game.Reset)
	router.HandleFunc("GET "+base+"/game/{id}/connect", game.ConnectWS)

	highscores := handlers.NewHighscoreHandler(a.logger, scores, deps.Lister)
	router.HandleFunc("GET "+base+"/highscores", highscores.Fetch)
	router.HandleFunc("GET "+base+"/highscores/all", highscores.List)

	if deps.Players == nil || deps.Cookies == nil {
		return
	}
	auth := handlers.NewAuthHandler(a.logger, deps.Players, deps.Cookies)
	router.HandleFunc("POST "+base+"/register", auth.Register)
	router.HandleFunc("POST "+base+"/login", auth.Login)
	router.HandleFunc("POST "+base+"/logout", auth.Logout)
	router.HandleFunc("GET "+base+"/status", auth.Status)
}
