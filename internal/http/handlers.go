package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pcfdash/internal/auth"
	"pcfdash/internal/core"
	"pcfdash/internal/log"
)

const maxLoginBody = 1 << 16

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Login rejected",
				log.FieldOperation, log.OpLogin,
				log.FieldUser, strings.ToLower(strings.TrimSpace(req.Email)))
			writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "login failed")
		return
	}

	redirect := "/"
	if sess.Role != auth.RoleAdmin {
		redirect = "/clusters/" + sess.Cluster
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Login succeeded",
		log.FieldOperation, log.OpLogin,
		log.FieldUser, sess.Email,
		"role", sess.Role)

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    sess.Token,
		Email:    sess.Email,
		Role:     sess.Role,
		Cluster:  sess.Cluster,
		Name:     sess.Name,
		Redirect: redirect,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	s.auth.Logout(sess.Token)
	w.WriteHeader(http.StatusNoContent)
}

// handleRefresh triggers a fetch of every source, persists snapshots
// and publishes the completion event. Source failures degrade the
// result instead of failing the request.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	ctx, cancel := context.WithTimeout(r.Context(), s.fetchTimeout)
	defer cancel()

	res, err := s.dash.Refresh(ctx)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Refresh failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err.Error())
		writeJSONError(w, http.StatusGatewayTimeout, "refresh did not complete")
		return
	}

	if s.snapshots != nil {
		if _, err := s.snapshots.SaveRefresh(r.Context(), res); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Snapshot persistence failed",
				log.FieldOperation, log.OpSnapshot,
				log.FieldGeneration, res.Generation,
				log.FieldError, err.Error())
		}
	}
	if s.events != nil {
		if err := s.events.PublishRefreshCompleted(r.Context(), res); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Refresh event publish failed",
				log.FieldOperation, log.OpPublish,
				log.FieldGeneration, res.Generation,
				log.FieldError, err.Error())
		}
	}

	s.respCache.Clear()

	clusterRows := make(map[string]int, len(res.Clusters))
	for _, report := range res.Clusters {
		clusterRows[report.Cluster.Key] = len(report.Rows)
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Generation:   res.Generation,
		FetchedAt:    res.FetchedAt,
		RowCount:     len(res.Rows),
		ClusterRows:  clusterRows,
		SourceErrors: sourceErrorNames(res.Errors),
		Empty:        res.AllEmpty(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if sess.Role != auth.RoleAdmin {
		writeJSONError(w, http.StatusForbidden, "admin access required")
		return
	}

	const cacheKey = "stats"
	if body, ok := s.respCache.Get(cacheKey); ok {
		writeCached(w, body)
		return
	}

	res, ok := s.dash.Latest()
	if !ok {
		writeJSON(w, http.StatusOK, emptyStats())
		return
	}

	s.writeAndCache(w, cacheKey, buildStats(res))
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	cacheKey := "clusters|" + sess.Cluster
	if body, ok := s.respCache.Get(cacheKey); ok {
		writeCached(w, body)
		return
	}

	res, hasData := s.dash.Latest()

	views := make([]clusterSummaryView, 0, len(s.dash.Clusters()))
	for _, c := range s.dash.Clusters() {
		if !sess.CanAccessCluster(c.Key) {
			continue
		}
		if hasData {
			if report, ok := res.Cluster(c.Key); ok {
				views = append(views, buildClusterSummary(report))
				continue
			}
		}
		views = append(views, emptyClusterDetail(c).clusterSummaryView)
	}

	s.writeAndCache(w, cacheKey, views)
}

func (s *Server) handleClusterDetail(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	key := r.PathValue("key")
	cluster, ok := core.ClusterByKey(s.dash.Clusters(), key)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown cluster")
		return
	}
	if !sess.CanAccessCluster(key) {
		writeJSONError(w, http.StatusForbidden, "cluster access denied")
		return
	}

	res, hasData := s.dash.Latest()
	if !hasData {
		writeJSON(w, http.StatusOK, emptyClusterDetail(cluster))
		return
	}

	report, ok := res.Cluster(key)
	if !ok {
		writeJSON(w, http.StatusOK, emptyClusterDetail(cluster))
		return
	}
	writeJSON(w, http.StatusOK, buildClusterDetail(report, res.FetchedAt, time.Now()))
}

func (s *Server) handleClusterHistory(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	key := r.PathValue("key")
	if _, ok := core.ClusterByKey(s.dash.Clusters(), key); !ok {
		writeJSONError(w, http.StatusNotFound, "unknown cluster")
		return
	}
	if !sess.CanAccessCluster(key) {
		writeJSONError(w, http.StatusForbidden, "cluster access denied")
		return
	}

	if s.snapshots == nil {
		writeJSON(w, http.StatusOK, []snapshotView{})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	snaps, err := s.snapshots.RecentSnapshots(r.Context(), key, limit)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Snapshot query failed",
			log.FieldClusterKey, key,
			log.FieldError, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snapshotViews(snaps))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	clusterKey := strings.TrimSpace(r.URL.Query().Get("cluster"))

	res, hasData := s.dash.Latest()
	if !hasData {
		writeJSON(w, http.StatusOK, transactionsResponse{Transactions: []transactionView{}})
		return
	}

	now := time.Now()
	var views []transactionView
	switch {
	case clusterKey != "":
		if _, ok := core.ClusterByKey(s.dash.Clusters(), clusterKey); !ok {
			writeJSONError(w, http.StatusNotFound, "unknown cluster")
			return
		}
		if !sess.CanAccessCluster(clusterKey) {
			writeJSONError(w, http.StatusForbidden, "cluster access denied")
			return
		}
		report, ok := res.Cluster(clusterKey)
		if !ok {
			break
		}
		views = transactionViews(core.SearchRows(report.Rows, search), clusterKey, now)
	default:
		if sess.Role != auth.RoleAdmin {
			writeJSONError(w, http.StatusForbidden, "admin access required for the global listing")
			return
		}
		rows := core.SearchRows(res.Rows, search)
		views = make([]transactionView, len(rows))
		for i, row := range rows {
			views[i] = buildTransaction(row, clusterForRow(row, s.dash.Clusters()), now)
		}
	}

	if views == nil {
		views = []transactionView{}
	}
	writeJSON(w, http.StatusOK, transactionsResponse{
		Refreshed:    true,
		Count:        len(views),
		Transactions: views,
	})
}

func writeCached(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// writeAndCache renders v once and memoizes the body until the next
// refresh or TTL expiry.
func (s *Server) writeAndCache(w http.ResponseWriter, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	s.respCache.Set(key, body)
	writeCached(w, body)
}
