package router

// Replies are plain ASCII pt-BR so they render the same on every client.
const (
	msgStart        = "FinanceBot online. Use /compra, /listar ou /deletar."
	msgUnrecognized = "Comando nao reconhecido. Use /compra, /listar ou /deletar."

	msgCompraUsage      = "Uso correto: /compra <VALOR>, <DESCRICAO>, <CATEGORIA>. Exemplo: /compra 58,90, Almoco, Mercado"
	msgInvalidAmount    = "Valor invalido. Use um numero positivo, exemplo: 58,90"
	msgEmptyDescription = "Descricao obrigatoria no comando /compra."
	msgLongDescription  = "Descricao muito longa. Use no maximo 255 caracteres."
	msgUnknownCategory  = "Categoria '%s' inexistente.\n\nCategorias disponiveis:\n%s"
	msgCompraRegistered = "Compra registrada: R$ %s - %s"
	msgListarUsage      = "Uso correto: /listar <MM/YY>. Exemplo: /listar 09/26"
	msgInvalidMonthYear = "Mes/ano invalido. Use o formato MM/YY, exemplo: 09/26"
	msgNoExpenses       = "Nenhuma compra encontrada para %s."
	msgListHeader       = "Compras de %s:"
	msgListLine         = "%d | %s | R$ %s | %s | %s"
	msgListTotal        = "Total: R$ %s"
	msgDeletarUsage     = "Uso correto: /deletar <ID>. Exemplo: /deletar 42"
	msgInvalidID        = "ID invalido para o comando /deletar."
	msgIDNotFound       = "ID nao encontrado. Nada foi removido."
	msgCompraRemoved    = "Compra removida: R$ %s - %s (%s)"
	listTimestampLayout = "02/01/2006 15:04"
)
